package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/plazagoods/storefront-backend/pkg/config"
	"github.com/plazagoods/storefront-backend/pkg/db"
	"github.com/plazagoods/storefront-backend/pkg/db/models"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

const cartEntriesDDL = `
CREATE TABLE cart_entries (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	user_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product TEXT,
	quantity INTEGER NOT NULL,
	added_at DATETIME NOT NULL,
	created_at DATETIME,
	updated_at DATETIME,
	UNIQUE (user_id, product_id)
)`

func testRepository(t *testing.T) Repository {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().Exec(cartEntriesDDL).Error)
	return NewRepository(client)
}

func testEntry(userID uuid.UUID, productID string, quantity int) *models.CartEntry {
	return &models.CartEntry{
		UserID:    userID,
		ProductID: productID,
		Product: types.ProductSnapshot{
			ID:    productID,
			Price: decimal.RequireFromString("10"),
		},
		Quantity: quantity,
		AddedAt:  time.Now().UTC(),
	}
}

func TestCreateAndListUpsertsInOneTransaction(t *testing.T) {
	repo := testRepository(t)
	userID := uuid.New()
	ctx := context.Background()

	entries, err := repo.CreateAndList(ctx, testEntry(userID, "p-1", 2))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].Quantity)

	entries, err = repo.CreateAndList(ctx, testEntry(userID, "p-1", 3))
	require.NoError(t, err)
	require.Len(t, entries, 1, "same product must stay a single row")
	require.Equal(t, 5, entries[0].Quantity)

	entries, err = repo.CreateAndList(ctx, testEntry(userID, "p-2", 1))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestCreateAndListScopesToOwner(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	_, err := repo.CreateAndList(ctx, testEntry(alice, "p-1", 1))
	require.NoError(t, err)

	entries, err := repo.CreateAndList(ctx, testEntry(bob, "p-2", 1))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "p-2", entries[0].ProductID)
}
