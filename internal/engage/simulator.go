// Package engage synthesizes viewer engagement for a live session,
// standing in for a real live-platform event feed.
package engage

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/timer"
)

// DefaultTick is the interval between engagement ticks.
const DefaultTick = 5 * time.Second

const tickKey = "engagement:tick"

// Event probabilities per tick.
const (
	chatChance    = 0.3
	newUserChance = 0.2
	giftChance    = 0.1
	orderChance   = 0.05
)

// Fixed pools the synthetic events draw from.
var (
	chatUsernames = []string{"User123", "TikTokFan", "Viewer456", "LiveWatcher", "FanAccount"}
	chatMessages  = []string{
		"Keren banget!",
		"Halo from Jakarta!",
		"Love your content!",
		"Amazing stream!",
		"Salam dari Surabaya",
	}
	giftCatalog   = []string{"Rose", "Heart", "Diamond", "Crown"}
	orderProducts = []string{
		"Serum Wajah Glowing",
		"Lipstick Matte",
		"Cream Pemutih",
		"Masker Wajah",
		"Parfum Premium",
	}
	orderAmounts = []int64{99000, 149000, 199000, 249000, 299000}
)

// Bus publishes events to the presentation layer.
type Bus interface {
	Publish(event string, payload any)
}

// Hooks receive synthetic events the session layer reacts to. Synthetic
// orders are informational at this layer: the hook owner applies them to
// inventory, the simulator has no catalog reference.
type Hooks struct {
	OnChat  func(models.ChatMessage)
	OnGift  func(models.Gift)
	OnOrder func(models.Order)
}

// Simulator generates synthetic viewer, like, comment, chat, gift, and
// order events on a fixed tick while the session is live.
type Simulator struct {
	reg    *timer.Registry
	bus    Bus
	rng    Rand
	tick   time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	hooks Hooks
	stats models.EngagementStats
}

// NewSimulator creates a simulator ticking every tick; a non-positive
// tick falls back to DefaultTick.
func NewSimulator(reg *timer.Registry, bus Bus, rng Rand, tick time.Duration, logger *zap.Logger) *Simulator {
	if tick <= 0 {
		tick = DefaultTick
	}
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{reg: reg, bus: bus, rng: rng, tick: tick, logger: logger}
}

// SetHooks installs the event hooks. Call before Start.
func (s *Simulator) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Start resets the counters and begins the engagement tick. Idempotent:
// starting a running simulator changes nothing.
func (s *Simulator) Start() {
	started := s.reg.Every(tickKey, s.tick, func() bool {
		s.step()
		return true
	})
	if !started {
		return
	}
	s.mu.Lock()
	s.stats = models.EngagementStats{}
	s.mu.Unlock()
	s.logger.Info("engagement simulator started", zap.Duration("tick", s.tick))
}

// Stop cancels the tick. Counters keep their last values for readout.
func (s *Simulator) Stop() {
	if s.reg.Cancel(tickKey) {
		s.logger.Info("engagement simulator stopped")
	}
}

// Running reports whether the tick is active.
func (s *Simulator) Running() bool {
	return s.reg.Active(tickKey)
}

// Stats returns the current engagement counters.
func (s *Simulator) Stats() models.EngagementStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// step runs one engagement tick.
func (s *Simulator) step() {
	s.mu.Lock()
	s.stats.Viewers += s.rng.Intn(5)
	s.stats.Likes += s.rng.Intn(10)
	s.stats.Comments += s.rng.Intn(3)
	stats := s.stats
	hooks := s.hooks
	s.mu.Unlock()

	s.bus.Publish("viewer_count", stats.Viewers)
	s.bus.Publish("like", stats.Likes)
	s.bus.Publish("comment_count", stats.Comments)

	if s.rng.Float64() < chatChance {
		msg := models.ChatMessage{
			Username:  chatUsernames[s.rng.Intn(len(chatUsernames))],
			Message:   chatMessages[s.rng.Intn(len(chatMessages))],
			IsNewUser: s.rng.Float64() < newUserChance,
		}
		s.bus.Publish("chat", msg)
		if hooks.OnChat != nil {
			hooks.OnChat(msg)
		}
	}

	if s.rng.Float64() < giftChance {
		gift := models.Gift{
			Username: "Supporter" + strconv.Itoa(s.rng.Intn(1000)),
			GiftName: giftCatalog[s.rng.Intn(len(giftCatalog))],
			Count:    s.rng.Intn(5) + 1,
		}
		s.bus.Publish("gift", gift)
		if hooks.OnGift != nil {
			hooks.OnGift(gift)
		}
	}

	if s.rng.Float64() < orderChance {
		order := models.Order{
			ID:       uuid.New(),
			Customer: "Buyer" + strconv.Itoa(s.rng.Intn(1000)),
			Product:  orderProducts[s.rng.Intn(len(orderProducts))],
			Quantity: s.rng.Intn(3) + 1,
			Amount:   decimal.NewFromInt(orderAmounts[s.rng.Intn(len(orderAmounts))]),
			PlacedAt: time.Now(),
		}
		s.bus.Publish("new_order", order)
		if hooks.OnOrder != nil {
			hooks.OnOrder(order)
		}
	}
}
