package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order records a purchase confirmed during a live session. Orders are
// immutable once applied.
type Order struct {
	ID       uuid.UUID       `json:"id"`
	Customer string          `json:"customer"`
	Product  string          `json:"product"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
}

// SalesStats is the running order/revenue aggregate for the storefront.
type SalesStats struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}
