package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/plazagoods/storefront-backend/pkg/db/models"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
)

type fakeRepo struct {
	rows       []models.Product
	byID       map[uuid.UUID]*models.Product
	lastParams ListParams
}

func (f *fakeRepo) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	f.lastParams = params
	return f.rows, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return f.byID[id], nil
}

func TestGetMissingProductIsNotFound(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[uuid.UUID]*models.Product{}})

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetReturnsRow(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{byID: map[uuid.UUID]*models.Product{
		id: {ID: id, Name: "Widget"},
	}}
	svc := NewService(repo)

	row, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Widget", row.Name)
}

func TestSnapshotUsesFirstImage(t *testing.T) {
	p := &models.Product{
		ID:              uuid.New(),
		Name:            "Widget",
		Category:        "tools",
		Price:           decimal.RequireFromString("19.99"),
		DiscountPercent: 10,
		ImageURLs:       pq.StringArray{"https://img.example/a.png", "https://img.example/b.png"},
		InStock:         true,
	}

	snap := Snapshot(p)
	require.Equal(t, p.ID.String(), snap.ID)
	require.Equal(t, "https://img.example/a.png", snap.Image)
	require.True(t, snap.Price.Equal(p.Price))
	require.Equal(t, 10, snap.DiscountPercent)
}

func TestSnapshotWithoutImages(t *testing.T) {
	snap := Snapshot(&models.Product{ID: uuid.New(), Name: "Widget"})
	require.Empty(t, snap.Image)
}
