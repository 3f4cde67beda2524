package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the subset of catalog attributes frozen into a cart line
// at the moment the product is added. It can go stale relative to the catalog.
type ProductSnapshot struct {
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Image           string          `json:"image,omitempty"`
	Category        string          `json:"category,omitempty"`
	InStock         bool            `json:"in_stock"`
	DiscountPercent int             `json:"discount_percent,omitempty"`
}

// CartLine is one product-plus-quantity entry within a cart, as exchanged
// between the client store, the local store file, and the cart API.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}
