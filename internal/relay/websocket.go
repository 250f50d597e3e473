package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxMessageSize = 1 << 20

type wsConfig struct {
	pingInterval time.Duration
	pongWait     time.Duration
	writeWait    time.Duration
}

func defaultWSConfig() wsConfig {
	return wsConfig{
		pingInterval: 30 * time.Second,
		pongWait:     10 * time.Second,
		writeWait:    5 * time.Second,
	}
}

// ServeHTTP upgrades the request to a WebSocket and relays page messages
// until the page disconnects. The handshake Origin header must match the
// expected origin; messages that declare no origin inherit it. Messages are
// forwarded concurrently and each response carries its request id.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return c.originAllowed(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("relay upgrade rejected")
		return
	}
	defer conn.Close()

	origin := r.Header.Get("Origin")
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	write := func(resp Response) {
		writeMu.Lock()
		defer writeMu.Unlock()

		_ = conn.SetWriteDeadline(time.Now().Add(c.ws.writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug().Err(err).Msg("relay write failed")
			cancel()
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.ws.pingInterval + c.ws.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.ws.pingInterval + c.ws.pongWait))
	})
	go c.pingLoop(ctx, conn, &writeMu)

	log.Info().Str("origin", origin).Msg("relay connected")
	defer log.Info().Str("origin", origin).Msg("relay disconnected")

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Msg("relay read ended")
			}
			break
		}

		var msg PageMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			write(Response{Error: "malformed message"})
			continue
		}
		if msg.Origin == "" {
			msg.Origin = origin
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			write(c.Forward(ctx, msg))
		}()
	}

	cancel()
	wg.Wait()
}

func (c *Channel) pingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(c.ws.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.ws.writeWait))
			writeMu.Unlock()
			if err != nil {
				log.Debug().Err(err).Msg("relay ping failed")
				return
			}
		}
	}
}
