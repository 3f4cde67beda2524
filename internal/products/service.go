package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/plazagoods/storefront-backend/pkg/db/models"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

// Service exposes catalog reads and snapshot capture for cart writes.
type Service interface {
	List(ctx context.Context, params ListParams) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service to its repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching product")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return row, nil
}

// Snapshot freezes the cart-relevant attributes of a catalog row.
func Snapshot(p *models.Product) types.ProductSnapshot {
	snap := types.ProductSnapshot{
		ID:              p.ID.String(),
		Name:            p.Name,
		Price:           p.Price,
		Category:        p.Category,
		InStock:         p.InStock,
		DiscountPercent: p.DiscountPercent,
	}
	if len(p.ImageURLs) > 0 {
		snap.Image = p.ImageURLs[0]
	}
	return snap
}
