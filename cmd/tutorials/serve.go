package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/site"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/shutdown"
)

const readHeaderTimeout = 10 * time.Second

func runServe(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common.register(fs)
	addr := fs.String("addr", "", "listen address (overrides server.address)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := load(common, os.Stderr)
	if err != nil {
		return err
	}
	if *addr != "" {
		a.cfg.Server.Address = *addr
	}
	logger := a.logger
	logging.SetDefault(logger)

	if err := a.lib.Warm(); err != nil {
		return err
	}

	store := content.NewStore(a.lib)
	s, err := site.New(a.catalog, store,
		site.WithCodeRenderer(a.renderer.CodeRenderer()),
		site.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	r := site.NewRouter(s, site.ServerConfig{
		Live:    a.cfg.LiveConfig(),
		Version: version,
		Logger:  logger,
	})
	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	sd := shutdown.NewHandler(&shutdown.Config{
		Timeout: a.cfg.Server.ShutdownTimeout,
		Signals: shutdown.DefaultConfig().Signals,
		Logger:  logger,
	})
	sd.RegisterFunc("http", shutdown.PriorityHTTP, srv.Shutdown)

	ctx, stop := sd.NotifyContext(context.Background())
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Live sessions close after the listener, then the watcher stops.
	live := sd.Go("live", shutdown.PriorityLive, r.Run)
	g.Go(func() error {
		return <-live
	})
	if a.watching() {
		w := content.NewWatcher(a.cfg.Content.Dir, store, a.renderer,
			content.WithLogger(logger),
			content.OnReload(site.ReloadNotifier(r, logger)),
		)
		watcher := sd.Go("watcher", shutdown.PriorityWatcher, w.Run)
		g.Go(func() error {
			return <-watcher
		})
	}

	g.Go(func() error {
		logger.Info("listening",
			logging.String("addr", srv.Addr),
			logging.String("base", a.catalog.BasePath),
			logging.Int("pages", a.lib.Len()),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return sd.Shutdown()
	})

	return g.Wait()
}
