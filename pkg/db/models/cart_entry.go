package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plazagoods/storefront-backend/pkg/types"
)

// CartEntry is one product line in a user's server-side cart. The product
// snapshot is captured at insertion time and is not refreshed from the catalog.
type CartEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_entries_user_product,priority:1"`
	ProductID string                `gorm:"column:product_id;not null;uniqueIndex:idx_cart_entries_user_product,priority:2"`
	Product   types.ProductSnapshot `gorm:"column:product;type:jsonb;serializer:json"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	AddedAt   time.Time             `gorm:"column:added_at;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartEntry) TableName() string {
	return "cart_entries"
}
