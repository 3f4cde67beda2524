package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog row. Carts embed a snapshot of these fields rather
// than referencing the row, so catalog edits never rewrite existing carts.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Category        string          `gorm:"column:category"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	ImageURLs       pq.StringArray  `gorm:"column:image_urls;type:text[]"`
	InStock         bool            `gorm:"column:in_stock;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
