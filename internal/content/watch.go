package content

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Store holds the current library. Readers always see a complete library;
// reloads replace it as a whole.
type Store struct {
	lib atomic.Pointer[Library]
}

// NewStore creates a store serving lib.
func NewStore(lib *Library) *Store {
	s := &Store{}
	s.lib.Store(lib)
	return s
}

// Library returns the current library.
func (s *Store) Library() *Library {
	return s.lib.Load()
}

// Swap replaces the library.
func (s *Store) Swap(lib *Library) {
	s.lib.Store(lib)
}

// Watcher reloads a content directory into a Store when its Markdown files
// change. A reload that fails keeps the previous library.
type Watcher struct {
	dir      string
	store    *Store
	renderer *markdown.Renderer
	logger   logging.Logger
	debounce time.Duration
	onReload func(*Library)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	running sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the watcher's logger.
func WithLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// OnReload registers a callback run after each successful reload.
func OnReload(fn func(*Library)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, store *Store, r *markdown.Renderer, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		store:    store,
		renderer: r,
		logger:   logging.NopLogger{},
		debounce: DefaultDebounce,
		onReload: func(*Library) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns only after a reload already
// in progress has finished, so no OnReload callback runs after it.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = false
	w.mu.Unlock()
	defer w.stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching content", logging.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.schedule()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content watcher error", logging.Err(err))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.running.Add(1)
	w.mu.Unlock()

	defer w.running.Done()
	w.Reload()
}

// stop cancels a pending reload and waits for a running one.
func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.running.Wait()
}

// Reload loads the directory now.
func (w *Watcher) Reload() {
	lib, err := LoadDir(w.dir, w.renderer)
	if err == nil {
		err = lib.Warm()
	}
	if err != nil {
		w.logger.Error("content reload failed", logging.Err(err))
		return
	}
	w.store.Swap(lib)
	w.logger.Info("content reloaded", logging.Int("pages", lib.Len()))
	w.onReload(lib)
}
