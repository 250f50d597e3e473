// Package relay carries page messages to the approval broker and the
// broker's settlements back to the page. It never interprets method or
// params.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrOriginMismatch = errors.New("message origin does not match the expected page origin")
	ErrMissingID      = errors.New("message id is required")
)

// PageMessage is one request from the page.
type PageMessage struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Origin string          `json:"origin,omitempty"`
}

// Response answers the page message with the same id. Exactly one of Data
// and Error is set.
type Response struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Forwarder receives forwarded messages.
type Forwarder interface {
	Forward(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
}

// ForwarderFunc adapts a function to Forwarder.
type ForwarderFunc func(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)

func (f ForwarderFunc) Forward(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return f(ctx, method, params)
}

// Channel relays messages from one expected page origin.
type Channel struct {
	origin string
	next   Forwarder

	ws wsConfig
}

// New returns a Channel that accepts messages declaring expectedOrigin and
// hands them to next.
func New(expectedOrigin string, next Forwarder) *Channel {
	return &Channel{
		origin: normalizeOrigin(expectedOrigin),
		next:   next,
		ws:     defaultWSConfig(),
	}
}

// Forward relays msg and returns the correlated response. Messages without
// an id or from another origin are answered with an error and never reach
// the forwarder.
func (c *Channel) Forward(ctx context.Context, msg PageMessage) Response {
	if msg.ID == "" {
		return Response{Error: ErrMissingID.Error()}
	}
	if !c.originAllowed(msg.Origin) {
		return Response{ID: msg.ID, Error: ErrOriginMismatch.Error()}
	}

	data, err := c.next.Forward(ctx, msg.Method, msg.Params)
	if err != nil {
		return Response{ID: msg.ID, Error: err.Error()}
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Response{ID: msg.ID, Data: data}
}

func (c *Channel) originAllowed(origin string) bool {
	return origin != "" && normalizeOrigin(origin) == c.origin
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
