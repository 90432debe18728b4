// Package livetest mounts a component and drives it with events without a
// browser or websocket.
package livetest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
)

// View is a mounted component under test.
type View struct {
	t         *testing.T
	component core.Component
	transport *MockTransport
	socket    *core.Socket
	session   core.Session
	rendered  string
	events    []string
}

// MountOption configures the test mount.
type MountOption func(*mountConfig)

type mountConfig struct {
	params  core.Params
	session core.Session
}

// WithParams sets mount parameters, as if they came from the query string.
func WithParams(params core.Params) MountOption {
	return func(c *mountConfig) {
		c.params = params
	}
}

// WithSession sets session data.
func WithSession(session core.Session) MountOption {
	return func(c *mountConfig) {
		c.session = session
	}
}

// Mount mounts comp, attaches a mock socket and renders it once.
func Mount(t *testing.T, comp core.Component, opts ...MountOption) *View {
	t.Helper()

	cfg := &mountConfig{params: core.Params{}, session: core.Session{}}
	for _, opt := range opts {
		opt(cfg)
	}

	v := &View{
		t:         t,
		component: comp,
		transport: NewMockTransport(),
		session:   cfg.session,
	}
	v.socket = core.NewSocket(v.transport.ID, v.transport)

	ctx := core.BuildContext(context.Background(), v.socket, cfg.session)
	if err := comp.Mount(ctx, cfg.params, cfg.session); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if setter, ok := comp.(interface{ SetSocket(*core.Socket) }); ok {
		setter.SetSocket(v.socket)
	}

	v.render()
	return v
}

// Push sends event with a payload built from key/value pairs and re-renders.
// A failing HandleEvent fails the test.
func (v *View) Push(event string, kv ...string) *View {
	v.t.Helper()
	if err := v.TryPush(event, kv...); err != nil {
		v.t.Errorf("HandleEvent(%s) failed: %v", event, err)
	}
	return v
}

// TryPush is Push that returns the HandleEvent error instead of failing.
// The view is only re-rendered on success.
func (v *View) TryPush(event string, kv ...string) error {
	v.t.Helper()
	if len(kv)%2 != 0 {
		v.t.Fatalf("Push(%s): odd number of key/value arguments", event)
	}

	payload := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		payload[kv[i]] = kv[i+1]
	}

	v.events = append(v.events, event)
	ctx := core.BuildContext(context.Background(), v.socket, v.session)
	if err := v.component.HandleEvent(ctx, event, payload); err != nil {
		return err
	}
	v.render()
	return nil
}

// Terminate ends the component as if the connection closed.
func (v *View) Terminate(reason core.TerminateReason) error {
	return v.component.Terminate(context.Background(), reason)
}

func (v *View) render() {
	v.t.Helper()

	ctx := core.WithSocket(context.Background(), v.socket)
	renderer := v.component.Render(ctx)
	if renderer == nil {
		v.t.Fatal("Render returned nil")
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf); err != nil {
		v.t.Fatalf("Render failed: %v", err)
	}
	v.rendered = buf.String()
}

// Rendered returns the current rendered HTML.
func (v *View) Rendered() string {
	return v.rendered
}

// AssertText fails unless the rendered HTML contains text.
func (v *View) AssertText(text string) *View {
	v.t.Helper()
	if !strings.Contains(v.rendered, text) {
		v.t.Errorf("Text not found: %q\nRendered HTML:\n%s", text, v.rendered)
	}
	return v
}

// AssertNoText fails if the rendered HTML contains text.
func (v *View) AssertNoText(text string) *View {
	v.t.Helper()
	if strings.Contains(v.rendered, text) {
		v.t.Errorf("Text should not exist: %q", text)
	}
	return v
}

// Count returns how many times text occurs in the rendered HTML.
func (v *View) Count(text string) int {
	return strings.Count(v.rendered, text)
}

// Transport returns the mock transport behind the component's socket.
func (v *View) Transport() *MockTransport {
	return v.transport
}

// Component returns the component under test.
func (v *View) Component() core.Component {
	return v.component
}

// Events returns the names of all events pushed so far.
func (v *View) Events() []string {
	return v.events
}
