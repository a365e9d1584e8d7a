package fileforge

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reaper deletes guest-owned stored objects after a fixed grace window.
//
// Each Schedule call arms one detached timer that outlives the request which
// scheduled it; the timer callback shares nothing with that request beyond
// the identifiers captured at schedule time. Deletion failures are logged and
// absorbed. Pending deletions do not survive a process restart.
type Reaper struct {
	store  ObjectStore
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	timers  map[*time.Timer]struct{}
	wg      sync.WaitGroup
}

// NewReaper creates a reaper deleting scheduled objects from store after the
// given grace window.
func NewReaper(store ObjectStore, window time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		store:  store,
		window: window,
		logger: logger,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Window returns the configured grace window.
func (r *Reaper) Window() time.Duration {
	return r.window
}

// Schedule arms deferred deletion for the given items. It returns
// immediately; the deletions fire after the grace window on a background
// goroutine. Scheduling after Stop is a no-op.
func (r *Reaper) Schedule(items []ReapItem) {
	if len(items) == 0 {
		return
	}

	byClass := make(map[ResourceClass][]string)
	for _, item := range items {
		byClass[item.Class] = append(byClass[item.Class], item.PublicID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.logger.Warn("Reaper stopped, dropping scheduled deletions", "count", len(items))
		return
	}

	r.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(r.window, func() {
		defer r.wg.Done()
		// t is published by Schedule's unlock; read it only under the mutex.
		r.mu.Lock()
		delete(r.timers, t)
		r.mu.Unlock()
		r.reap(byClass)
	})
	r.timers[t] = struct{}{}
}

func (r *Reaper) reap(byClass map[ResourceClass][]string) {
	ctx := context.Background()
	for class, ids := range byClass {
		if err := r.store.DeleteMany(ctx, ids, class); err != nil {
			// The owning response was sent long ago; log and move on.
			r.logger.Error("Deferred deletion failed",
				"class", string(class), "count", len(ids), "error", err)
			continue
		}
		r.logger.Info("Reaped expired guest objects",
			"class", string(class), "count", len(ids))
	}
}

// Stop cancels pending timers and waits for in-flight deletions to finish.
// Deletions whose timers had not fired are dropped.
func (r *Reaper) Stop() {
	r.mu.Lock()
	r.stopped = true
	for t := range r.timers {
		if t.Stop() {
			// Callback will never run; release its wait slot.
			r.wg.Done()
		}
		delete(r.timers, t)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
