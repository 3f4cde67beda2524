package cartstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/plazagoods/storefront-backend/pkg/config"
	"github.com/plazagoods/storefront-backend/pkg/localstore"
	"github.com/plazagoods/storefront-backend/pkg/logger"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

// LocalStore is the synchronous device-scoped persistence used for guest
// carts and as a crash backup while authenticated.
type LocalStore interface {
	Load() ([]types.CartLine, error)
	Save(lines []types.CartLine) error
	Delete() error
}

// RemoteCart is the server-side cart resource bound to the authenticated
// user's session.
type RemoteCart interface {
	Fetch(ctx context.Context) ([]types.CartLine, error)
	Add(ctx context.Context, productID string, quantity int, snapshot types.ProductSnapshot) error
	SetQuantity(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Identity tracks how far auth resolution has progressed for this session.
type Identity int

const (
	IdentityUnknown Identity = iota
	IdentityGuest
	IdentityUser
)

// Pricing carries the rates applied when deriving cart totals.
type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// NewFromConfig builds a store backed by the configured device-local
// directory and pricing knobs.
func NewFromConfig(cfg config.CartConfig, logg *logger.Logger) *Store {
	return New(localstore.New(cfg.LocalDir), PricingFromConfig(cfg), logg)
}

// PricingFromConfig lifts the configured cart rates into a Pricing value.
func PricingFromConfig(cfg config.CartConfig) Pricing {
	return Pricing{
		TaxRate:               cfg.TaxRate,
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
}

// Totals are derived from the current cart state on every call; they are
// never cached across mutations.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	GrandTotal decimal.Decimal
}
