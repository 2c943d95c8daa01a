// Package timer provides a keyed registry of named recurring and one-shot
// timers, so every running countdown and interval in the process can be
// looked up, replaced, and cancelled by key.
package timer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickFunc runs on every timer tick. Returning false stops the timer and
// removes it from the registry. Callbacks must use the return value to stop
// their own timer instead of calling Cancel, which waits for the timer loop
// to exit and would deadlock when invoked from inside it.
type TickFunc func() bool

// Registry owns named timers. At most one timer runs per key; starting a
// second one under the same key is a no-op.
type Registry struct {
	mu     sync.Mutex
	timers map[string]*timer
	logger *zap.Logger
}

type timer struct {
	key    string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates an empty timer registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		timers: make(map[string]*timer),
		logger: logger,
	}
}

// Every starts a recurring timer under key, firing fn every interval until
// fn returns false or the timer is cancelled. Returns false without
// starting anything when a timer already runs under key.
func (r *Registry) Every(key string, interval time.Duration, fn TickFunc) bool {
	r.mu.Lock()
	if _, ok := r.timers[key]; ok {
		r.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &timer{key: key, cancel: cancel, done: make(chan struct{})}
	r.timers[key] = t
	r.mu.Unlock()

	go r.run(ctx, t, interval, fn)
	return true
}

// After starts a one-shot timer under key: fn fires once after delay and
// the timer removes itself. Same keying rules as Every.
func (r *Registry) After(key string, delay time.Duration, fn func()) bool {
	return r.Every(key, delay, func() bool {
		fn()
		return false
	})
}

// Replace cancels any timer running under key and starts a new recurring
// one in its place.
func (r *Registry) Replace(key string, interval time.Duration, fn TickFunc) {
	r.Cancel(key)
	r.Every(key, interval, fn)
}

// Cancel stops the timer under key and waits for its loop to exit, so no
// tick fires after Cancel returns. Returns false when no timer was running.
// Must not be called from the timer's own callback; return false from the
// callback instead.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	t, ok := r.timers[key]
	if ok {
		delete(r.timers, key)
		t.cancel()
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	<-t.done
	return true
}

// CancelAll stops every running timer and waits for all loops to exit.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	stopped := make([]*timer, 0, len(r.timers))
	for key, t := range r.timers {
		delete(r.timers, key)
		t.cancel()
		stopped = append(stopped, t)
	}
	r.mu.Unlock()
	for _, t := range stopped {
		<-t.done
	}
}

// Active reports whether a timer is running under key.
func (r *Registry) Active(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[key]
	return ok
}

// Len returns the number of running timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Registry) run(ctx context.Context, t *timer, interval time.Duration, fn TickFunc) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.tick(t.key, fn) {
				r.remove(t)
				return
			}
		}
	}
}

// tick runs fn and recovers panics so one failing tick cannot halt
// subsequent ticks.
func (r *Registry) tick(key string, fn TickFunc) (keep bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("timer tick panicked", zap.String("key", key), zap.Any("panic", rec))
			keep = true
		}
	}()
	return fn()
}

// remove drops a self-terminated timer; a newer timer registered under the
// same key is left alone.
func (r *Registry) remove(t *timer) {
	r.mu.Lock()
	if cur, ok := r.timers[t.key]; ok && cur == t {
		delete(r.timers, t.key)
	}
	r.mu.Unlock()
}
