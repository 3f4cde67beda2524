package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plazagoods/storefront-backend/pkg/db"
	"github.com/plazagoods/storefront-backend/pkg/db/models"
)

// Repository persists user-scoped cart entries.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	Get(ctx context.Context, userID uuid.UUID, productID string) (*models.CartEntry, error)
	CreateAndList(ctx context.Context, entry *models.CartEntry) ([]models.CartEntry, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error
	Delete(ctx context.Context, userID uuid.UUID, productID string) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

type gormRepository struct {
	client *db.Client
}

// NewRepository binds the repository to the provided DB client.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{client: client}
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	return listByUser(r.client.DB().WithContext(ctx), userID)
}

func listByUser(tx *gorm.DB, userID uuid.UUID) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := tx.
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gormRepository) Get(ctx context.Context, userID uuid.UUID, productID string) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := r.client.DB().WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// CreateAndList upserts the entry and rereads the user's cart inside one
// transaction so the returned lines reflect exactly the state the write
// committed.
func (r *gormRepository) CreateAndList(ctx context.Context, entry *models.CartEntry) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart_entries.quantity + ?", entry.Quantity)}),
			}).
			Create(entry).Error
		if err != nil {
			return err
		}
		entries, err = listByUser(tx, entry.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gormRepository) SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	res := r.client.DB().WithContext(ctx).
		Model(&models.CartEntry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, userID uuid.UUID, productID string) error {
	return r.client.DB().WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
}

func (r *gormRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	return r.client.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartEntry{}).Error
}
