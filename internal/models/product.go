package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a storefront item pitched during a live session. PromoPrice
// is expected to stay at or below Price but is deliberately not validated;
// bad product data is a storefront quality concern, not a hard error.
type Product struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	PromoPrice          decimal.Decimal `json:"promo_price"`
	Stock               int             `json:"stock"`
	Sold                int             `json:"sold"`
	Category            string          `json:"category"`
	Description         string          `json:"description"`
	IsFlashSale         bool            `json:"is_flash_sale"`
	SaleDurationMinutes int             `json:"sale_duration_minutes"`
	CreatedAt           time.Time       `json:"created_at"`
}

// DiscountPercent is the rounded percentage off the normal price, 0 when
// the normal price is zero.
func (p Product) DiscountPercent() int {
	if p.Price.IsZero() {
		return 0
	}
	off := decimal.NewFromInt(1).Sub(p.PromoPrice.Div(p.Price))
	return int(off.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
