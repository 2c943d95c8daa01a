package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/models"
)

func TestStore_ApplyOrder(t *testing.T) {
	s := NewStore()
	p := &models.Product{
		Name:       "Serum Wajah Glowing",
		Price:      decimal.NewFromInt(100000),
		PromoPrice: decimal.NewFromInt(80000),
		Stock:      5,
	}
	s.Add(p)

	updated, found := s.ApplyOrder(models.Order{
		Customer: "Buyer1",
		Product:  "Serum Wajah Glowing",
		Quantity: 2,
		Amount:   decimal.NewFromInt(160000),
	})
	if !found {
		t.Fatal("expected product to be found by name")
	}
	if updated.Stock != 3 {
		t.Errorf("stock = %d, want 3", updated.Stock)
	}
	if updated.Sold != 2 {
		t.Errorf("sold = %d, want 2", updated.Sold)
	}

	stats := s.Stats()
	if stats.Orders != 1 {
		t.Errorf("orders = %d, want 1", stats.Orders)
	}
	if !stats.Revenue.Equal(decimal.NewFromInt(160000)) {
		t.Errorf("revenue = %s, want 160000", stats.Revenue)
	}
}

func TestStore_ApplyOrder_ClampsStockAtZero(t *testing.T) {
	s := NewStore()
	s.Add(&models.Product{Name: "Lipstick Matte", Stock: 1})

	updated, found := s.ApplyOrder(models.Order{
		Product:  "Lipstick Matte",
		Quantity: 5,
		Amount:   decimal.NewFromInt(149000),
	})
	if !found {
		t.Fatal("expected product to be found")
	}
	if updated.Stock != 0 {
		t.Errorf("stock = %d, want 0 (clamped)", updated.Stock)
	}
	if updated.Sold != 5 {
		t.Errorf("sold = %d, want 5", updated.Sold)
	}
}

func TestStore_ApplyOrder_UnknownProductStillCounts(t *testing.T) {
	s := NewStore()

	_, found := s.ApplyOrder(models.Order{
		Product:  "Parfum Premium",
		Quantity: 1,
		Amount:   decimal.NewFromInt(299000),
	})
	if found {
		t.Error("unexpected product match in empty catalog")
	}
	stats := s.Stats()
	if stats.Orders != 1 {
		t.Errorf("orders = %d, want 1 even for unknown product", stats.Orders)
	}
	if !stats.Revenue.Equal(decimal.NewFromInt(299000)) {
		t.Errorf("revenue = %s, want 299000", stats.Revenue)
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	p := &models.Product{Name: "Masker Wajah"}
	s.Add(p)

	if !s.Delete(p.ID) {
		t.Fatal("Delete returned false for existing product")
	}
	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
	if s.Delete(p.ID) {
		t.Error("Delete returned true for missing product")
	}
}

func TestProduct_DiscountPercent(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		promo int64
		want  int
	}{
		{"quarter off", 100000, 75000, 25},
		{"fifth off", 100000, 80000, 20},
		{"zero price avoids division", 0, 50000, 0},
		{"no discount", 50000, 50000, 0},
		{"rounding", 99000, 66000, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Product{
				Price:      decimal.NewFromInt(tt.price),
				PromoPrice: decimal.NewFromInt(tt.promo),
			}
			if got := p.DiscountPercent(); got != tt.want {
				t.Errorf("DiscountPercent() = %d, want %d", got, tt.want)
			}
		})
	}
}
