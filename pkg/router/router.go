// Package router serves live components over HTTP. A live route renders the
// full page on a normal GET and upgrades to a websocket on the same path,
// where browser events are applied and changed slots are pushed back.
package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/protocol"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
	ErrNotJoined   = errors.New("event received before join")
)

// Router handles HTTP routing for live components.
type Router struct {
	mux          *http.ServeMux
	liveRoutes   map[string]*LiveRoute
	middleware   []Middleware
	errorHandler ErrorHandler

	config          core.Config
	transportConfig *transport.Config
	codecs          *protocol.CodecRegistry
	logger          logging.Logger

	sessionManager *LiveViewSessionManager
	socketManager  *core.SocketManager

	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the ServeMux pattern.
	Path string

	// Component creates one component instance per request or connection.
	Component func() core.Component

	// Middleware wraps only this route.
	Middleware []Middleware

	// Meta contains route metadata.
	Meta map[string]any
}

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithConfig sets timeouts, the frame size limit and allowed origins.
func WithConfig(cfg core.Config) Option {
	return func(r *Router) {
		r.config = cfg
	}
}

// WithLogger sets the logger used for connection events.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		liveRoutes: make(map[string]*LiveRoute),
		config:     core.DefaultConfig(),
		codecs:     protocol.NewCodecRegistry(),
		logger:     logging.NopLogger{},

		socketManager: core.NewSocketManager(),

		errorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.sessionManager = NewLiveViewSessionManagerWithConfig(&LiveViewSessionManagerConfig{
		MaxSessions: r.config.MaxSessions,
		SessionTTL:  r.config.Timeouts.SessionTTL,
	})
	r.transportConfig = &transport.Config{
		ReadTimeout:       r.config.Timeouts.WebSocketRead,
		WriteTimeout:      r.config.Timeouts.WebSocketWrite,
		PingInterval:      r.config.Timeouts.WebSocketRead / 2,
		MaxMessageSize:    r.config.MaxMessageSize,
		SendBufferSize:    64,
		ReceiveBufferSize: 64,
		AllowedOrigins:    r.config.AllowedOrigins,
	}
	return r
}

// Use adds middleware to the router. It applies to routes registered after
// the call.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// SessionManager returns the session manager.
func (r *Router) SessionManager() *LiveViewSessionManager {
	return r.sessionManager
}

// Config returns the live connection settings.
func (r *Router) Config() core.Config {
	return r.config
}

// SocketManager returns the socket manager.
func (r *Router) SocketManager() *core.SocketManager {
	return r.socketManager
}

// Codecs returns the codec registry.
func (r *Router) Codecs() *protocol.CodecRegistry {
	return r.codecs
}

// Live registers a live route.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
		Meta:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(route)
	}
	r.registerLive(route)
}

func (r *Router) registerLive(route *LiveRoute) {
	r.mu.Lock()
	r.liveRoutes[route.Path] = route
	r.mu.Unlock()

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.renderLive(w, req, route)
	})
	for i := len(route.Middleware) - 1; i >= 0; i-- {
		h = route.Middleware[i](h)
	}
	r.Handle(livePattern(route.Path), h)
}

// livePattern matches only the route path itself, for GET and HEAD. A path
// ending in "/" would otherwise match its whole subtree.
func livePattern(path string) string {
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	return "GET " + path
}

// Handle registers a standard HTTP handler behind the global middleware.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	h := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	r.mux.Handle(pattern, h)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// Group creates a route group with shared prefix and middleware.
func (r *Router) Group(prefix string, fn func(*RouteGroup)) {
	fn(&RouteGroup{router: r, prefix: prefix})
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Run sweeps idle sessions until ctx is done, then closes every open
// session.
func (r *Router) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.Timeouts.SessionCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("idle sessions closed", logging.Int("count", n))
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.Timeouts.WebSocketWrite)
			defer cancel()
			r.Shutdown(shutdownCtx)
			return nil
		}
	}
}

// Sweep closes sessions idle longer than the session TTL and returns how
// many were closed.
func (r *Router) Sweep() int {
	expired := r.sessionManager.Cleanup()
	for _, s := range expired {
		r.handleDisconnect(s, core.TerminateTimeout)
	}
	return len(expired)
}

// Shutdown terminates every open session.
func (r *Router) Shutdown(ctx context.Context) error {
	for _, s := range r.sessionManager.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.handleDisconnect(s, core.TerminateShutdown)
	}
	return r.socketManager.CloseAll(ctx)
}

// renderLive serves the full page, or hands websocket upgrades to
// handleWebSocket.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if isWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}

	component := route.Component()
	params := core.ParamsFromQuery(req.URL.Query())
	session := extractSession(req)

	ctx, cancel := context.WithTimeout(req.Context(), r.config.Timeouts.ComponentMount)
	defer cancel()
	ctx = core.BuildContext(ctx, nil, session)

	if err := component.Mount(ctx, params, session); err != nil {
		r.errorHandler(w, req, fmt.Errorf("mount %s: %w", component.Name(), err))
		return
	}
	defer component.Terminate(ctx, core.TerminateNormal)

	renderer := component.Render(ctx)
	if renderer == nil {
		r.errorHandler(w, req, ErrNilRenderer)
		return
	}

	buf := getBuffer()
	defer putBuffer(buf)
	if err := renderer.Render(ctx, buf); err != nil {
		r.errorHandler(w, req, fmt.Errorf("render %s: %w", component.Name(), err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleWebSocket upgrades the request and starts the message loop.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	ws, err := transport.Accept(w, req, r.codecs, r.transportConfig)
	if err != nil {
		logging.L(req.Context()).Warn("websocket upgrade failed", logging.Err(err))
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, NewTransportAdapter(ws))
	component := route.Component()
	params := core.ParamsFromQuery(req.URL.Query())
	session := extractSession(req)

	logger := logging.L(req.Context()).With(
		logging.String("socket_id", socketID),
		logging.String("component", component.Name()),
		logging.String("codec", ws.Codec().Name()),
	)

	// The connection outlives the HTTP request, so its context must not
	// derive from req.Context().
	ctx, cancel := context.WithCancel(context.Background())
	ctx = core.BuildContext(ctx, socket, session)
	ctx = logging.ContextWithLogger(ctx, logger)

	lv := NewLiveViewSession(socketID, component, params, session)
	lv.Transport = ws
	lv.Socket = socket
	lv.cancel = cancel

	// The session is complete before it is visible, so an eviction racing
	// with this join can always tear it down.
	evicted := r.sessionManager.Add(lv)
	r.socketManager.Add(socket)
	if evicted != nil {
		logger.Info("session cap reached, evicting",
			logging.String("evicted_socket_id", evicted.SocketID),
			logging.Int("max_sessions", r.config.MaxSessions),
		)
		r.handleDisconnect(evicted, core.TerminateEvicted)
	}
	logger.Debug("websocket connected")

	go r.messageLoop(ctx, lv)
}

// messageLoop processes incoming messages until the connection ends.
func (r *Router) messageLoop(ctx context.Context, session *LiveViewSession) {
	reason := core.TerminateNormal
	defer func() {
		r.handleDisconnect(session, reason)
	}()

	for {
		select {
		case msg := <-session.Transport.Receive():
			session.UpdateActivity()
			session.Socket.UpdateActivity()

			switch msg.Type() {
			case protocol.MsgHeartbeat:
				r.sendReply(session, msg, nil)

			case protocol.MsgJoin:
				r.handleJoin(ctx, session, msg)

			case protocol.MsgLeave:
				r.sendReply(session, msg, nil)
				return

			case protocol.MsgReply, protocol.MsgDiff:
				// Server-to-client events are ignored.

			default:
				r.handleEvent(ctx, session, msg)
			}

		case <-session.Transport.Done():
			return

		case <-ctx.Done():
			reason = core.TerminateShutdown
			return
		}
	}
}

// handleJoin mounts the component on first join and replies with the full
// render.
func (r *Router) handleJoin(ctx context.Context, session *LiveViewSession, msg *protocol.Message) {
	component := session.Component
	session.SetJoinRef(msg.JoinRef)
	session.SetTopic(msg.Topic)

	if !session.IsMounted() {
		mountCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.ComponentMount)
		err := component.Mount(mountCtx, session.Params, session.Session)
		cancel()
		if err != nil {
			logging.L(ctx).Error("mount failed", logging.Err(err))
			r.sendError(session, msg, err)
			return
		}
		if bc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
			bc.SetSocket(session.Socket)
		}
		session.SetMounted(true)
	}

	html, err := renderComponent(ctx, component)
	if err != nil {
		r.sendError(session, msg, err)
		return
	}

	// Seed the slot hashes so the first event only sends what changed.
	textSlots, htmlSlots := extractSlotsOptimized(html)
	hashes := make(map[string]uint64, len(textSlots)+len(htmlSlots))
	for id, content := range textSlots {
		hashes[id] = hashSlotContent(content)
	}
	for id, content := range htmlSlots {
		hashes[id] = hashSlotContent(content)
	}
	session.SetSlotHashes(hashes)

	r.sendReply(session, msg, map[string]any{
		"topic": session.Socket.Topic(),
		"rendered": map[string]any{
			"s": []string{html},
		},
	})
}

// handleEvent applies a user event and pushes the resulting diff. The reply
// follows the diff so the client sees the new state before the ack.
func (r *Router) handleEvent(ctx context.Context, session *LiveViewSession, msg *protocol.Message) {
	if !session.IsMounted() {
		r.sendError(session, msg, ErrNotJoined)
		return
	}

	eventCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.ComponentEvent)
	defer cancel()

	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	if err := session.Component.HandleEvent(eventCtx, msg.Event, payload); err != nil {
		logging.L(ctx).Warn("event rejected",
			logging.String("event", msg.Event),
			logging.Err(err),
		)
		r.sendError(session, msg, err)
		return
	}

	if err := r.renderAndSendDiff(eventCtx, session); err != nil {
		logging.L(ctx).Error("diff failed", logging.String("event", msg.Event), logging.Err(err))
		r.sendError(session, msg, err)
		return
	}
	r.sendReply(session, msg, nil)
}

// renderAndSendDiff renders the component and sends the changed slots.
func (r *Router) renderAndSendDiff(ctx context.Context, session *LiveViewSession) error {
	html, err := renderComponent(ctx, session.Component)
	if err != nil {
		return err
	}

	payload := buildDiffPayload(session, html)
	if payload.IsEmpty() {
		return nil
	}
	return session.Socket.SendDiff(payload)
}

func renderComponent(ctx context.Context, component core.Component) (string, error) {
	renderer := component.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	buf := getBuffer()
	defer putBuffer(buf)
	if err := renderer.Render(ctx, buf); err != nil {
		return "", fmt.Errorf("render %s: %w", component.Name(), err)
	}
	return buf.String(), nil
}

// buildDiffPayload compares slot hashes against the previous render.
func buildDiffPayload(session *LiveViewSession, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.NextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	textSlots, htmlSlots := extractSlotsOptimized(html)
	prevHashes := session.GetSlotHashes()
	newHashes := make(map[string]uint64, len(textSlots)+len(htmlSlots))

	for id, content := range textSlots {
		hash := hashSlotContent(content)
		newHashes[id] = hash
		if prevHashes == nil || prevHashes[id] != hash {
			payload.Slots[id] = content
		}
	}
	for id, content := range htmlSlots {
		hash := hashSlotContent(content)
		newHashes[id] = hash
		if prevHashes == nil || prevHashes[id] != hash {
			payload.HTMLSlots[id] = content
		}
	}
	session.SetSlotHashes(newHashes)

	// Without slots the client can only replace everything.
	if len(textSlots) == 0 && len(htmlSlots) == 0 {
		payload.Full = html
	}
	return payload
}

// extractSlotsOptimized extracts data-slot content in a single pass. Slots
// nested inside another slot are not reported separately.
func extractSlotsOptimized(html string) (textSlots, htmlSlots map[string]string) {
	textSlots = make(map[string]string)
	htmlSlots = make(map[string]string)

	const marker = `data-slot="`
	markerLen := len(marker)
	htmlLen := len(html)
	pos := 0

	for pos < htmlLen {
		idx := strings.Index(html[pos:], marker)
		if idx == -1 {
			break
		}

		slotStart := pos + idx + markerLen
		slotEnd := strings.IndexByte(html[slotStart:], '"')
		if slotEnd == -1 {
			pos = slotStart
			continue
		}
		slotID := html[slotStart : slotStart+slotEnd]

		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}

		tagNameEnd := tagStart + 1
		for tagNameEnd < htmlLen && html[tagNameEnd] != ' ' && html[tagNameEnd] != '>' && html[tagNameEnd] != '/' {
			tagNameEnd++
		}
		tagName := html[tagStart+1 : tagNameEnd]

		closeAngle := strings.IndexByte(html[slotStart+slotEnd:], '>')
		if closeAngle == -1 {
			pos = slotStart + slotEnd
			continue
		}
		contentStart := slotStart + slotEnd + closeAngle + 1

		openTag := "<" + tagName
		closeTag := "</" + tagName
		openTagLen := len(openTag)
		closeTagLen := len(closeTag)

		depth := 1
		searchPos := contentStart
		contentEnd := -1

		for depth > 0 && searchPos < htmlLen {
			nextOpen := strings.Index(html[searchPos:], openTag)
			nextClose := strings.Index(html[searchPos:], closeTag)
			if nextClose == -1 {
				break
			}

			if nextOpen != -1 {
				nextOpen += searchPos
			} else {
				nextOpen = htmlLen
			}
			nextClose += searchPos

			if nextOpen < nextClose {
				// Only count real tags, not prefixes such as <spanx.
				afterOpen := nextOpen + openTagLen
				if afterOpen < htmlLen {
					switch html[afterOpen] {
					case ' ', '>', '/', '\t', '\n':
						depth++
					}
				}
				searchPos = nextOpen + openTagLen
			} else {
				depth--
				if depth == 0 {
					contentEnd = nextClose
				}
				searchPos = nextClose + closeTagLen
			}
		}

		if contentEnd != -1 {
			content := strings.TrimSpace(html[contentStart:contentEnd])
			if strings.ContainsAny(content, "<>") {
				htmlSlots[slotID] = content
			} else {
				textSlots[slotID] = content
			}
		}

		pos = searchPos
	}

	return textSlots, htmlSlots
}

// hashSlotContent computes the FNV-64a hash of slot content.
func hashSlotContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 16*1024))
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns buf to the pool unless it grew too large to keep.
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1<<20 {
		return
	}
	bufferPool.Put(buf)
}

// handleDisconnect tears a session down. Only the first call has an effect.
func (r *Router) handleDisconnect(session *LiveViewSession, reason core.TerminateReason) {
	session.closeOnce.Do(func() {
		if session.cancel != nil {
			session.cancel()
		}

		if session.IsMounted() {
			ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeouts.ComponentEvent)
			session.Component.Terminate(ctx, reason)
			cancel()
		}

		r.sessionManager.Remove(session.ID)
		r.socketManager.Remove(session.SocketID)
		if session.Socket != nil {
			session.Socket.Close()
		}

		fields := []logging.Field{
			logging.String("socket_id", session.SocketID),
			logging.String("reason", reason.String()),
		}
		if session.Socket != nil {
			fields = append(fields, logging.Duration("connected_for", time.Since(session.Socket.ConnectedAt())))
		}
		r.logger.Debug("websocket closed", fields...)
	})
}

// sendReply sends an ok reply to msg.
func (r *Router) sendReply(session *LiveViewSession, msg *protocol.Message, response map[string]any) {
	reply := protocol.OkReply(msg.Ref, msg.Topic, response)
	reply.JoinRef = msg.JoinRef
	session.Transport.Send(reply)
}

// sendError sends an error reply to msg.
func (r *Router) sendError(session *LiveViewSession, msg *protocol.Message, err error) {
	reply := protocol.ErrorReply(msg.Ref, msg.Topic, err.Error())
	reply.JoinRef = msg.JoinRef
	session.Transport.Send(reply)
}

// extractSession collects cookies and the request ID.
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	if id := logging.RequestID(req.Context()); id != "" {
		session["request_id"] = id
	}
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	return session
}

// isWebSocketRequest checks if this is a websocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}

// RouteGroup represents a group of routes with shared prefix and middleware.
type RouteGroup struct {
	router     *Router
	prefix     string
	middleware []Middleware
}

// Use adds middleware to the group.
func (g *RouteGroup) Use(mw Middleware) {
	g.middleware = append(g.middleware, mw)
}

// Live registers a live route in the group.
func (g *RouteGroup) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:       g.prefix + path,
		Component:  component,
		Middleware: append([]Middleware(nil), g.middleware...),
		Meta:       make(map[string]any),
	}
	for _, opt := range opts {
		opt(route)
	}
	g.router.registerLive(route)
}

// Handle registers a handler in the group.
func (g *RouteGroup) Handle(pattern string, handler http.Handler) {
	h := handler
	for i := len(g.middleware) - 1; i >= 0; i-- {
		h = g.middleware[i](h)
	}
	g.router.Handle(g.prefix+pattern, h)
}

// Get registers a GET handler.
func (g *RouteGroup) Get(pattern string, handler http.HandlerFunc) {
	g.Handle(pattern, methodHandler(http.MethodGet, handler))
}

// methodHandler restricts a handler to one HTTP method. HEAD is allowed
// wherever GET is.
func methodHandler(method string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	})
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithRouteMiddleware adds middleware to the route.
func WithRouteMiddleware(mw ...Middleware) RouteOption {
	return func(r *LiveRoute) {
		r.Middleware = append(r.Middleware, mw...)
	}
}

// WithMeta adds metadata to the route.
func WithMeta(key string, value any) RouteOption {
	return func(r *LiveRoute) {
		r.Meta[key] = value
	}
}
