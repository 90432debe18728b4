package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestShutdown_Order(t *testing.T) {
	h := NewHandler(nil)

	var order []string
	record := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	h.RegisterFunc("watcher", PriorityWatcher, record("watcher"))
	h.RegisterFunc("http", PriorityHTTP, record("http"))
	h.RegisterFunc("live-a", PriorityLive, record("live-a"))
	h.RegisterFunc("live-b", PriorityLive, record("live-b"))

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := strings.Join(order, ","); got != "http,live-a,live-b,watcher" {
		t.Errorf("order = %s", got)
	}

	if err := h.Shutdown(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second Shutdown = %v", err)
	}
}

func TestShutdown_CollectsErrors(t *testing.T) {
	h := NewHandler(nil)
	boom := errors.New("boom")
	ran := false

	h.RegisterFunc("bad", PriorityFirst, func(ctx context.Context) error { return boom })
	h.RegisterFunc("after", PriorityLast, func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := h.Shutdown()
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "bad") {
		t.Errorf("err = %v", err)
	}
	if !ran {
		t.Error("hooks after a failure should still run")
	}
}

func TestShutdown_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	h := NewHandler(cfg)

	ran := false
	h.RegisterFunc("slow", PriorityFirst, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	h.RegisterFunc("skipped", PriorityLast, func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err := h.Shutdown(); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("err = %v", err)
	}
	if ran {
		t.Error("hooks after the deadline should not run")
	}
}

func TestGo_StopsInPriorityOrder(t *testing.T) {
	h := NewHandler(nil)

	var order []string
	var mu sync.Mutex
	runner := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	watcher := h.Go("watcher", PriorityWatcher, runner("watcher"))
	live := h.Go("live", PriorityLive, runner("live"))

	select {
	case <-live:
		t.Fatal("live stopped before shutdown")
	case <-time.After(20 * time.Millisecond):
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := strings.Join(order, ","); got != "live,watcher" {
		t.Errorf("order = %s", got)
	}
	if err := <-live; err != nil {
		t.Errorf("live = %v", err)
	}
	if err := <-watcher; err != nil {
		t.Errorf("watcher = %v", err)
	}
}

func TestGo_ReportsEarlyError(t *testing.T) {
	h := NewHandler(nil)
	boom := errors.New("boom")

	errc := h.Go("task", PriorityLive, func(context.Context) error { return boom })
	if err := <-errc; !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Errorf("Shutdown after the task ended: %v", err)
	}
}
