package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plazagoods/storefront-backend/pkg/db/models"
)

// Repository reads catalog rows.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ListParams bound catalog listings.
type ListParams struct {
	Category string
	Limit    int
	Offset   int
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var rows []models.Product
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(params.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
