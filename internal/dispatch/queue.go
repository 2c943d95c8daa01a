// Package dispatch serializes outgoing script lines through a rate-limited
// single-consumer queue.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/models"
)

// DefaultCooldown is the minimum spacing between dispatched lines.
const DefaultCooldown = 5 * time.Second

// Speaker receives each dispatched line. The session layer binds the
// current avatar and voice configuration here at dispatch time.
type Speaker interface {
	Speak(item models.ScriptItem)
}

// Queue is the ordered buffer of pending script lines. Enqueue never
// blocks and has no capacity bound; any number of producers may append
// concurrently and observe a consistent FIFO order. A single drain loop
// delivers items with an enforced cooldown between lines.
type Queue struct {
	speaker  Speaker
	cooldown time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	items  []models.ScriptItem
	seq    int64
	cancel context.CancelFunc
	done   chan struct{}

	wake chan struct{}
}

// NewQueue creates a queue draining into speaker. A non-positive cooldown
// falls back to DefaultCooldown.
func NewQueue(speaker Speaker, cooldown time.Duration, logger *zap.Logger) *Queue {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		speaker:  speaker,
		cooldown: cooldown,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue appends one line to the tail and always succeeds. IDs come from
// a monotonic counter so concurrent producers never collide.
func (q *Queue) Enqueue(text string) models.ScriptItem {
	q.mu.Lock()
	item := q.push(text)
	q.mu.Unlock()
	q.signal()
	return item
}

// EnqueueBatch appends lines as one atomic append, preserving their
// relative order against any concurrent producer.
func (q *Queue) EnqueueBatch(texts []string) []models.ScriptItem {
	if len(texts) == 0 {
		return nil
	}
	items := make([]models.ScriptItem, len(texts))
	q.mu.Lock()
	for i, text := range texts {
		items[i] = q.push(text)
	}
	q.mu.Unlock()
	q.signal()
	return items
}

// push appends one item; callers hold q.mu.
func (q *Queue) push(text string) models.ScriptItem {
	q.seq++
	item := models.ScriptItem{ID: q.seq, Text: text, EnqueuedAt: time.Now()}
	q.items = append(q.items, item)
	return item
}

// Remove deletes a pending line by ID.
func (q *Queue) Remove(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of pending lines.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a snapshot of the pending lines in dispatch order.
func (q *Queue) Items() []models.ScriptItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.ScriptItem, len(q.items))
	copy(out, q.items)
	return out
}

// Resume starts the drain loop if it is not already running. Calling
// Resume on a draining queue is a no-op: there is never more than one
// active consumer.
func (q *Queue) Resume() {
	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return
	}
	prev := q.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	q.cancel = cancel
	q.done = done
	q.mu.Unlock()

	go func() {
		// a halting predecessor must fully exit before the new loop
		// starts, even when Resume races a concurrent Halt
		if prev != nil {
			<-prev
		}
		q.drain(ctx, done)
	}()
	q.logger.Debug("dispatch queue draining")
}

// Halt stops the drain loop; pending lines stay queued for the next
// Resume. A cooldown wait in progress is abandoned. No-op when idle.
func (q *Queue) Halt() {
	q.mu.Lock()
	cancel := q.cancel
	done := q.done
	q.cancel = nil
	q.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	q.logger.Debug("dispatch queue halted", zap.Int("pending", q.Len()))
}

// Draining reports whether a drain loop is active.
func (q *Queue) Draining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancel != nil
}

func (q *Queue) drain(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		item, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}
		q.speak(item)
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.cooldown):
		}
	}
}

func (q *Queue) pop() (models.ScriptItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.ScriptItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// speak delivers one line; a panicking speaker must not take down the
// drain loop.
func (q *Queue) speak(item models.ScriptItem) {
	defer func() {
		if rec := recover(); rec != nil {
			q.logger.Error("speaker panicked", zap.Int64("item_id", item.ID), zap.Any("panic", rec))
		}
	}()
	q.speaker.Speak(item)
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
