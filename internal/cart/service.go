package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plazagoods/storefront-backend/pkg/db/models"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

// AddItemInput carries a product snapshot into the user's server-side cart.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Snapshot  types.ProductSnapshot
}

// Service owns the server-side cart semantics: one entry per (user, product),
// adds increment, non-positive quantities remove. AddItem returns the cart as
// committed by the write.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) ([]models.CartEntry, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the cart service to its repository.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cart entries")
	}
	return entries, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) ([]models.CartEntry, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	snapshot := input.Snapshot
	if snapshot.ID == "" {
		snapshot.ID = productID
	}

	entry := &models.CartEntry{
		UserID:    userID,
		ProductID: productID,
		Product:   snapshot,
		Quantity:  input.Quantity,
		AddedAt:   s.now(),
	}
	entries, err := s.repo.CreateAndList(ctx, entry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting cart entry")
	}
	return entries, nil
}

func (s *service) SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	if err := s.repo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart quantity")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting cart entry")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}
