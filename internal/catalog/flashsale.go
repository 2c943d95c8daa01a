package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/timer"
)

const flashSaleKeyPrefix = "flashsale:"

// FlashSaleManager owns at most one countdown per product. Countdowns are
// product-scoped: they keep running across session stop and clear only on
// expiry or when the owning product is deleted. Each countdown runs on its
// own registry timer, so removing one never affects the others.
type FlashSaleManager struct {
	reg    *timer.Registry
	bus    Bus
	logger *zap.Logger
	tick   time.Duration

	mu        sync.Mutex
	remaining map[uuid.UUID]int
}

// NewFlashSaleManager creates a flash-sale manager counting down once per
// second.
func NewFlashSaleManager(reg *timer.Registry, bus Bus, logger *zap.Logger) *FlashSaleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlashSaleManager{
		reg:       reg,
		bus:       bus,
		logger:    logger,
		tick:      time.Second,
		remaining: make(map[uuid.UUID]int),
	}
}

func flashSaleKey(id uuid.UUID) string {
	return flashSaleKeyPrefix + id.String()
}

// Arm starts the countdown for a flash-sale product. Arming an already
// armed product is a no-op. Returns whether a new countdown started.
func (m *FlashSaleManager) Arm(p models.Product) bool {
	if !p.IsFlashSale {
		return false
	}
	seconds := p.SaleDurationMinutes * 60
	if seconds <= 0 {
		return false
	}

	m.mu.Lock()
	if _, armed := m.remaining[p.ID]; armed {
		m.mu.Unlock()
		return false
	}
	m.remaining[p.ID] = seconds
	m.mu.Unlock()

	productID := p.ID
	started := m.reg.Every(flashSaleKey(productID), m.tick, func() bool {
		return m.countdown(productID)
	})
	if !started {
		// A registry timer under this key survived a previous disarm
		// race; drop our claim rather than double-arm.
		m.mu.Lock()
		delete(m.remaining, productID)
		m.mu.Unlock()
		return false
	}

	m.bus.Publish("flash_sale_started", map[string]any{
		"product_id":        productID,
		"remaining_seconds": seconds,
	})
	m.logger.Info("flash sale armed",
		zap.String("product_id", productID.String()),
		zap.Int("seconds", seconds),
	)
	return true
}

// countdown is the per-second tick for one product. Returning false
// removes the timer from the registry.
func (m *FlashSaleManager) countdown(productID uuid.UUID) bool {
	m.mu.Lock()
	left, armed := m.remaining[productID]
	if !armed {
		// disarmed while this tick was in flight
		m.mu.Unlock()
		return false
	}
	left--
	if left > 0 {
		m.remaining[productID] = left
		m.mu.Unlock()
		m.bus.Publish("flash_sale_tick", map[string]any{
			"product_id":        productID,
			"remaining_seconds": left,
		})
		return true
	}
	delete(m.remaining, productID)
	m.mu.Unlock()

	m.bus.Publish("flash_sale_expired", map[string]any{"product_id": productID})
	m.logger.Info("flash sale expired", zap.String("product_id", productID.String()))
	return false
}

// Disarm cancels the countdown for a product, if one exists. Used when the
// owning product is deleted.
func (m *FlashSaleManager) Disarm(productID uuid.UUID) bool {
	m.mu.Lock()
	_, armed := m.remaining[productID]
	delete(m.remaining, productID)
	m.mu.Unlock()

	cancelled := m.reg.Cancel(flashSaleKey(productID))
	if armed || cancelled {
		m.logger.Info("flash sale disarmed", zap.String("product_id", productID.String()))
		return true
	}
	return false
}

// Remaining reports the seconds left on a product's countdown.
func (m *FlashSaleManager) Remaining(productID uuid.UUID) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	left, armed := m.remaining[productID]
	return left, armed
}

// Armed reports whether a countdown exists for the product.
func (m *FlashSaleManager) Armed(productID uuid.UUID) bool {
	_, armed := m.Remaining(productID)
	return armed
}
