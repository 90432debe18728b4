package site

import (
	"net/http"
	"time"

	"github.com/gabrielmiguelok/autoimpute-tutorials/client"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/health"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/router"
)

// EventReload asks connected browsers to reload the page.
const EventReload = "reload"

// ServerConfig configures NewRouter.
type ServerConfig struct {
	Live    core.Config
	Version string
	Logger  logging.Logger
}

// NewRouter mounts the site and its support routes:
//
//	GET <base>            live view, websocket on the same path
//	GET /                 redirect to <base>
//	GET /pages/{tag}      static page render
//	GET /_live/...        browser client
//	GET /health[/live|/ready]
func NewRouter(s *Site, cfg ServerConfig) *router.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = s.logger
	}

	r := router.New(router.WithConfig(cfg.Live), router.WithLogger(logger))
	r.Use(router.Recovery(logger))
	r.Use(router.RequestID())
	r.Use(router.Logger(logger))
	r.Use(router.SecureHeaders())

	base := s.catalog.BasePath
	r.Live(base, s.NewView, router.WithMeta("title", s.meta.Title))
	if base != "/" {
		r.Handle("GET /{$}", http.RedirectHandler(base, http.StatusFound))
	}

	r.Group("/pages", func(g *router.RouteGroup) {
		g.Get("/{$}", s.serveIndex)
		g.Get("/{tag}", s.servePage)
	})

	r.Handle(AssetsPrefix, http.StripPrefix(AssetsPrefix, client.Handler()))

	checker := Checker(s, r, cfg.Version)
	r.Handle("GET /health", checker.HealthHandler())
	r.Handle("GET /health/live", checker.LivenessHandler())
	r.Handle("GET /health/ready", checker.ReadinessHandler())

	return r
}

// Checker reports unhealthy without pages and degraded when live sessions
// reach their cap.
func Checker(s *Site, r *router.Router, version string) *health.Checker {
	checker := health.NewChecker(version)
	checker.AddCriticalCheck("pages", health.CountCheck("pages", func() int {
		return s.Library().Len()
	}, 1), time.Second)
	checker.AddCheck("sessions", health.CapacityCheck("sessions",
		r.SessionManager().Count, r.Config().MaxSessions), time.Second)
	return checker
}

// ReloadNotifier tells every connected browser to reload. Pass it to the
// content watcher.
func ReloadNotifier(r *router.Router, logger logging.Logger) func(*content.Library) {
	return func(lib *content.Library) {
		n := r.SocketManager().Broadcast(core.Message{Event: EventReload})
		logger.Info("content reloaded",
			logging.Int("pages", lib.Len()),
			logging.Int("notified", n),
		)
	}
}
