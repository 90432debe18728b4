// Package core defines the server-side component model: components mount with
// request parameters, render HTML, and receive events from the browser over a
// Socket.
package core

import (
	"context"
	"io"
	"net/url"
)

// Component is a stateful server-side view. One instance lives per browser
// connection, and the framework never calls it from two goroutines at once.
type Component interface {
	// Name identifies the component type in logs.
	Name() string

	// Mount prepares initial state from the request parameters and session.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML. It is called after Mount and after
	// every handled event.
	Render(ctx context.Context) Renderer

	// HandleEvent applies a browser event. payload holds the lv-value-*
	// attributes of the element that fired it.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// Terminate releases resources when the connection ends.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params holds query string values of the mounting request.
type Params map[string]string

// ParamsFromQuery takes the first value of each query key.
func ParamsFromQuery(q url.Values) Params {
	params := make(Params, len(q))
	for key, values := range q {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault returns a parameter value or the default if not found.
func (p Params) GetDefault(key, defaultValue string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

// Session carries per-request data from the HTTP handler, such as cookies.
type Session map[string]any

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	TerminateNormal TerminateReason = iota
	TerminateShutdown
	TerminateError
	TerminateTimeout
	TerminateEvicted
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	case TerminateTimeout:
		return "timeout"
	case TerminateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// BaseComponent provides no-op Mount, HandleEvent and Terminate. Embed it
// and override what the component needs.
type BaseComponent struct {
	socket *Socket
}

// SetSocket is called by the framework once the websocket is joined. Static
// HTTP renders never set it.
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the component's socket, or nil before the websocket joins.
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}

// PayloadString reads a string value from an event payload. Numbers sent by
// the client are not coerced.
func PayloadString(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key].(string)
	return v, ok
}
