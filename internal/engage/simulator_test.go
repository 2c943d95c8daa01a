package engage

import (
	"sync"
	"testing"
	"time"

	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/timer"
)

// scriptedRand replays fixed draws; exhausted sequences fall back to 0 for
// Intn and 1.0 for Float64 (which suppresses every chance-based event).
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 1.0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

type captureBus struct {
	mu     sync.Mutex
	events map[string][]any
}

func newCaptureBus() *captureBus {
	return &captureBus{events: make(map[string][]any)}
}

func (b *captureBus) Publish(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event] = append(b.events[event], payload)
}

func (b *captureBus) last(event string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.events[event]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

func TestSimulator_CountersAccumulate(t *testing.T) {
	bus := newCaptureBus()
	rng := &scriptedRand{ints: []int{3, 7, 2, 1, 4, 1}}
	s := NewSimulator(timer.NewRegistry(nil), bus, rng, time.Minute, nil)

	s.step()
	s.step()

	stats := s.Stats()
	if stats.Viewers != 4 || stats.Likes != 11 || stats.Comments != 3 {
		t.Errorf("stats = %+v, want viewers 4, likes 11, comments 3", stats)
	}
	if got, ok := bus.last("viewer_count"); !ok || got.(int) != 4 {
		t.Errorf("viewer_count = %v, want 4", got)
	}
	if got, ok := bus.last("like"); !ok || got.(int) != 11 {
		t.Errorf("like = %v, want 11", got)
	}
	if got, ok := bus.last("comment_count"); !ok || got.(int) != 3 {
		t.Errorf("comment_count = %v, want 3", got)
	}
}

func TestSimulator_ChatEmission(t *testing.T) {
	bus := newCaptureBus()
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 1, 2},     // counters, then username and message picks
		floats: []float64{0.1, 0.1, 1, 1}, // chat fires, viewer is new, no gift/order
	}
	s := NewSimulator(timer.NewRegistry(nil), bus, rng, time.Minute, nil)

	var hooked models.ChatMessage
	s.SetHooks(Hooks{OnChat: func(m models.ChatMessage) { hooked = m }})
	s.step()

	payload, ok := bus.last("chat")
	if !ok {
		t.Fatal("chat event not published")
	}
	msg := payload.(models.ChatMessage)
	if msg.Username != chatUsernames[1] || msg.Message != chatMessages[2] {
		t.Errorf("chat = %+v, want username %q message %q", msg, chatUsernames[1], chatMessages[2])
	}
	if !msg.IsNewUser {
		t.Error("expected a new-user chat")
	}
	if hooked != msg {
		t.Errorf("hook received %+v, want %+v", hooked, msg)
	}
}

func TestSimulator_OrderIsInformational(t *testing.T) {
	bus := newCaptureBus()
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 42, 1, 1, 3},
		floats: []float64{1, 1, 0.01}, // no chat, no gift, order fires
	}
	s := NewSimulator(timer.NewRegistry(nil), bus, rng, time.Minute, nil)

	var hooked models.Order
	s.SetHooks(Hooks{OnOrder: func(o models.Order) { hooked = o }})
	s.step()

	payload, ok := bus.last("new_order")
	if !ok {
		t.Fatal("new_order event not published")
	}
	order := payload.(models.Order)
	if order.Product != orderProducts[1] {
		t.Errorf("order product = %q, want %q", order.Product, orderProducts[1])
	}
	if order.Quantity != 2 {
		t.Errorf("order quantity = %d, want 2", order.Quantity)
	}
	if hooked.ID != order.ID {
		t.Error("order hook not invoked with the published order")
	}
}

func TestSimulator_StartResetsCountersAndIsIdempotent(t *testing.T) {
	reg := timer.NewRegistry(nil)
	defer reg.CancelAll()
	bus := newCaptureBus()
	s := NewSimulator(reg, bus, &scriptedRand{ints: []int{4, 4, 2}}, 5*time.Millisecond, nil)

	s.Start()
	time.Sleep(15 * time.Millisecond)
	s.Stop()
	if s.Running() {
		t.Error("simulator still running after Stop")
	}
	if s.Stats().Viewers == 0 {
		t.Fatal("expected counters to accumulate while running")
	}

	s.Start()
	defer s.Stop()
	if stats := s.Stats(); stats != (models.EngagementStats{}) {
		t.Errorf("counters not reset on new session start: %+v", stats)
	}
	s.Start() // second Start must not reset or double-tick
	if !s.Running() {
		t.Error("simulator not running after Start")
	}
}
