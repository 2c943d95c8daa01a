package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/timer"
)

type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) Publish(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e == event {
			n++
		}
	}
	return n
}

func flashProduct(minutes int) models.Product {
	return models.Product{
		ID:                  uuid.New(),
		Name:                "Serum Wajah Glowing",
		Price:               decimal.NewFromInt(100000),
		PromoPrice:          decimal.NewFromInt(80000),
		Stock:               5,
		IsFlashSale:         true,
		SaleDurationMinutes: minutes,
	}
}

func newTestManager(bus Bus) (*FlashSaleManager, *timer.Registry) {
	reg := timer.NewRegistry(nil)
	m := NewFlashSaleManager(reg, bus, nil)
	m.tick = time.Millisecond // one simulated second per millisecond
	return m, reg
}

func TestFlashSale_ExpiresExactlyOnce(t *testing.T) {
	bus := &recordingBus{}
	m, reg := newTestManager(bus)
	defer reg.CancelAll()

	p := flashProduct(1) // 60 simulated seconds
	if !m.Arm(p) {
		t.Fatal("Arm returned false for a fresh flash-sale product")
	}

	// 61 simulated seconds plus scheduling slack.
	time.Sleep(100 * time.Millisecond)

	if got := bus.count("flash_sale_expired"); got != 1 {
		t.Errorf("flash_sale_expired published %d times, want exactly 1", got)
	}
	if m.Armed(p.ID) {
		t.Error("countdown still armed after expiry")
	}
	if reg.Active(flashSaleKey(p.ID)) {
		t.Error("registry timer still exists after expiry")
	}
}

func TestFlashSale_DoubleArmKeepsOneTimer(t *testing.T) {
	bus := &recordingBus{}
	m, reg := newTestManager(bus)
	defer reg.CancelAll()

	p := flashProduct(10)
	if !m.Arm(p) {
		t.Fatal("first Arm failed")
	}
	if m.Arm(p) {
		t.Error("second Arm should be a no-op")
	}
	if reg.Len() != 1 {
		t.Errorf("registry holds %d timers, want 1", reg.Len())
	}
}

func TestFlashSale_Disarm(t *testing.T) {
	bus := &recordingBus{}
	m, reg := newTestManager(bus)
	defer reg.CancelAll()

	p := flashProduct(10)
	m.Arm(p)
	if !m.Disarm(p.ID) {
		t.Fatal("Disarm returned false for an armed product")
	}
	if m.Armed(p.ID) || reg.Active(flashSaleKey(p.ID)) {
		t.Error("countdown survived Disarm")
	}

	time.Sleep(20 * time.Millisecond)
	if got := bus.count("flash_sale_expired"); got != 0 {
		t.Errorf("disarmed countdown published %d expiries", got)
	}
	if m.Disarm(p.ID) {
		t.Error("Disarm of an unarmed product should return false")
	}
}

func TestFlashSale_CountdownsAreIndependent(t *testing.T) {
	bus := &recordingBus{}
	m, reg := newTestManager(bus)
	defer reg.CancelAll()

	first := flashProduct(10)
	second := flashProduct(10)
	m.Arm(first)
	m.Arm(second)

	m.Disarm(first.ID)
	if !m.Armed(second.ID) {
		t.Error("disarming one product cancelled another product's countdown")
	}
	if _, ok := m.Remaining(second.ID); !ok {
		t.Error("second countdown lost its remaining seconds")
	}
}

func TestFlashSale_ArmRejectsNonFlashProduct(t *testing.T) {
	bus := &recordingBus{}
	m, reg := newTestManager(bus)
	defer reg.CancelAll()

	p := flashProduct(10)
	p.IsFlashSale = false
	if m.Arm(p) {
		t.Error("Arm should refuse a product without the flash-sale flag")
	}
	p.IsFlashSale = true
	p.SaleDurationMinutes = 0
	if m.Arm(p) {
		t.Error("Arm should refuse a zero-duration sale")
	}
}
