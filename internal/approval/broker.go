package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SurfaceManager opens and closes approval surfaces. Open may block until
// the surface is shown; the broker never calls it from its event loop.
// Surfaces closed by the user are reported back through
// Broker.SurfaceClosed.
type SurfaceManager interface {
	Open(req PendingRequest) error
	Close(surfaceID string)
}

type outcome struct {
	data json.RawMessage
	err  error
}

// inflight is the outstanding request and its single-use resolver.
type inflight struct {
	req    PendingRequest
	result chan outcome
}

// Broker serializes approval requests. All state lives in one event loop
// goroutine; public methods hand closures to it and wait for the answer.
type Broker struct {
	surfaces SurfaceManager

	events chan func()
	quit   chan struct{}
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	// Owned by the event loop.
	current *inflight
}

// NewBroker returns a broker that opens surfaces through surfaces. Call
// Start before use.
func NewBroker(surfaces SurfaceManager) *Broker {
	return &Broker{
		surfaces: surfaces,
		events:   make(chan func()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the event loop.
func (b *Broker) Start() {
	b.startOnce.Do(func() {
		go b.loop()
	})
}

// Stop shuts the event loop down. An outstanding request is rejected with
// ErrShuttingDown.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.quit)
	})
	b.startOnce.Do(func() {
		close(b.done)
	})
	<-b.done
}

func (b *Broker) loop() {
	defer close(b.done)

	for {
		select {
		case fn := <-b.events:
			fn()

		case <-b.quit:
			if b.current != nil {
				b.settle(b.current, outcome{err: ErrShuttingDown})
			}
			return
		}
	}
}

// run executes fn on the event loop. It reports false once the broker is
// stopped.
func (b *Broker) run(fn func()) bool {
	select {
	case b.events <- fn:
		return true
	case <-b.quit:
		return false
	}
}

// Request asks the user to approve method. It fails with ErrBusy while
// another request is outstanding. The call blocks until the request
// settles or ctx is done; cancelling ctx abandons the wait but leaves the
// request pending until its surface is closed or decided.
func (b *Broker) Request(ctx context.Context, method Method, params json.RawMessage) (json.RawMessage, error) {
	return b.submit(ctx, method, params, false)
}

// Supersede is Request that force-closes any outstanding surface first.
// The displaced request is rejected with ErrSuperseded.
func (b *Broker) Supersede(ctx context.Context, method Method, params json.RawMessage) (json.RawMessage, error) {
	return b.submit(ctx, method, params, true)
}

func (b *Broker) submit(ctx context.Context, method Method, params json.RawMessage, supersede bool) (json.RawMessage, error) {
	if !method.Supported() {
		return nil, ErrUnsupportedMethod
	}

	type accepted struct {
		fl  *inflight
		err error
	}
	reply := make(chan accepted, 1)

	ok := b.run(func() {
		if b.current != nil {
			if !supersede {
				reply <- accepted{err: ErrBusy}
				return
			}
			log.Info().
				Str("request_id", b.current.req.ID).
				Msg("approval request superseded")
			b.settle(b.current, outcome{err: ErrSuperseded})
		}

		fl := &inflight{
			req: PendingRequest{
				ID:        uuid.NewString(),
				SurfaceID: uuid.NewString(),
				Method:    method,
				Params:    params,
				CreatedAt: time.Now().UTC(),
			},
			result: make(chan outcome, 1),
		}
		b.current = fl
		go b.openSurface(fl.req)

		log.Info().
			Str("request_id", fl.req.ID).
			Str("method", string(method)).
			Msg("approval requested")
		reply <- accepted{fl: fl}
	})
	if !ok {
		return nil, ErrShuttingDown
	}

	a := <-reply
	if a.err != nil {
		return nil, a.err
	}

	select {
	case o := <-a.fl.result:
		return o.data, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Broker) openSurface(req PendingRequest) {
	err := b.surfaces.Open(req)
	b.run(func() {
		fl := b.current
		stale := fl == nil || fl.req.ID != req.ID

		switch {
		case err != nil && !stale:
			log.Error().Err(err).Str("request_id", req.ID).Msg("failed to open approval surface")
			b.settle(fl, outcome{err: fmt.Errorf("failed to open approval surface: %w", err)})

		case err == nil && stale:
			// Settled while the surface was opening.
			go b.surfaces.Close(req.SurfaceID)
		}
	})
}

// Pending returns the outstanding request, if any.
func (b *Broker) Pending() (PendingRequest, bool) {
	type pending struct {
		req PendingRequest
		ok  bool
	}
	reply := make(chan pending, 1)

	ok := b.run(func() {
		if b.current == nil {
			reply <- pending{}
			return
		}
		reply <- pending{req: b.current.req, ok: true}
	})
	if !ok {
		return PendingRequest{}, false
	}

	p := <-reply
	return p.req, p.ok
}

// Decide settles the outstanding request with a decision from the approval
// surface. It reports whether the decision took effect; a decision must
// name the outstanding request, so one without a request id or for a
// request that already settled is discarded.
func (b *Broker) Decide(d Decision) bool {
	if d.Type != "" && d.Type != DecisionType {
		return false
	}

	reply := make(chan bool, 1)
	ok := b.run(func() {
		fl := b.current
		if fl == nil || d.RequestID != fl.req.ID {
			reply <- false
			return
		}

		o := outcome{data: d.Result}
		if !d.Success {
			o = outcome{err: d.err()}
		}
		reply <- b.settle(fl, o)

		log.Info().
			Str("request_id", fl.req.ID).
			Bool("approved", d.Success).
			Msg("approval decided")
	})
	return ok && <-reply
}

// SurfaceClosed reports that the surface surfaceID went away. If its
// request is still outstanding it is rejected with ErrUserRejected.
func (b *Broker) SurfaceClosed(surfaceID string) bool {
	reply := make(chan bool, 1)
	ok := b.run(func() {
		fl := b.current
		if fl == nil || fl.req.SurfaceID != surfaceID {
			reply <- false
			return
		}

		log.Info().Str("request_id", fl.req.ID).Msg("approval surface closed")
		reply <- b.settle(fl, outcome{err: ErrUserRejected})
	})
	return ok && <-reply
}

// settle resolves fl once and closes its surface. Must run on the loop.
func (b *Broker) settle(fl *inflight, o outcome) bool {
	if b.current != fl {
		return false
	}
	b.current = nil
	fl.result <- o

	go b.surfaces.Close(fl.req.SurfaceID)
	return true
}
