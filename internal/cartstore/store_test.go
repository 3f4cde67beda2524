package cartstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/plazagoods/storefront-backend/pkg/config"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

type fakeLocal struct {
	mu      sync.Mutex
	lines   []types.CartLine
	loadErr error
	saveErr error
	saves   int
	deletes int
}

func (f *fakeLocal) Load() ([]types.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]types.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeLocal) Save(lines []types.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.lines = make([]types.CartLine, len(lines))
	copy(f.lines, lines)
	f.saves++
	return nil
}

func (f *fakeLocal) Delete() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	f.deletes++
	return nil
}

type addCall struct {
	productID string
	quantity  int
}

type fakeRemote struct {
	mu       sync.Mutex
	lines    []types.CartLine
	fetchErr error
	addErr   error
	setErr   error
	remErr   error
	clearErr error
	adds     []addCall
	removes  []string
	sets     []addCall
	clears   int
}

func (f *fakeRemote) Fetch(ctx context.Context) ([]types.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]types.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeRemote) Add(ctx context.Context, productID string, quantity int, snapshot types.ProductSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.adds = append(f.adds, addCall{productID: productID, quantity: quantity})
	return nil
}

func (f *fakeRemote) SetQuantity(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, addCall{productID: productID, quantity: quantity})
	return nil
}

func (f *fakeRemote) Remove(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remErr != nil {
		return f.remErr
	}
	f.removes = append(f.removes, productID)
	return nil
}

func (f *fakeRemote) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return f.clearErr
}

func testPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.10"),
		ShippingFee:           decimal.RequireFromString("9.99"),
		FreeShippingThreshold: decimal.NewFromInt(50),
	}
}

func snapshot(id string, price string) types.ProductSnapshot {
	return types.ProductSnapshot{
		ID:      id,
		Name:    "Product " + id,
		Price:   decimal.RequireFromString(price),
		InStock: true,
	}
}

func guestStore(t *testing.T) (*Store, *fakeLocal) {
	t.Helper()
	local := &fakeLocal{}
	store := New(local, testPricing(), nil)
	store.Resolve(context.Background(), nil)
	return store, local
}

func TestAddItemMergesByProductID(t *testing.T) {
	store, _ := guestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 1))
	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.NoError(t, store.AddItem(ctx, snapshot("B", "5"), 1))

	items := store.Items()
	require.Len(t, items, 2)
	require.Equal(t, 3, store.ItemQuantity("A"))
	require.Equal(t, 1, store.ItemQuantity("B"))
	require.Equal(t, 4, store.Count())
}

func TestAddItemRejectsBadInput(t *testing.T) {
	store, _ := guestStore(t)
	ctx := context.Background()

	err := store.AddItem(ctx, types.ProductSnapshot{}, 1)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = store.AddItem(ctx, snapshot("A", "10"), 0)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	require.False(t, store.IsInCart("A"))
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	store, _ := guestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.NoError(t, store.UpdateQuantity(ctx, "A", 0))
	require.False(t, store.IsInCart("A"))

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.NoError(t, store.UpdateQuantity(ctx, "A", -3))
	require.False(t, store.IsInCart("A"))
	require.Equal(t, 0, store.ItemQuantity("A"))
}

func TestRemoveAbsentItemIsNoop(t *testing.T) {
	store, _ := guestStore(t)
	require.NoError(t, store.RemoveItem(context.Background(), "ghost"))
}

func TestRollbackOnRemoteAddFailure(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{}
	store := New(local, testPricing(), nil)
	ctx := context.Background()
	store.Resolve(ctx, remote)

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))

	before := store.Items()
	remote.addErr = errors.New("boom")

	err := store.AddItem(ctx, snapshot("B", "5"), 1)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	require.Equal(t, before, store.Items())
	require.False(t, store.IsInCart("B"))
}

func TestRollbackRestoresLocalMirror(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{addErr: errors.New("boom")}
	store := New(local, testPricing(), nil)
	ctx := context.Background()
	store.Resolve(ctx, remote)

	require.Error(t, store.AddItem(ctx, snapshot("A", "10"), 1))
	require.Empty(t, store.Items())
	require.Empty(t, local.lines, "local mirror should not keep the rolled-back line")

	remote.addErr = nil
	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	mirrored := append([]types.CartLine(nil), local.lines...)

	remote.setErr = errors.New("boom")
	require.Error(t, store.UpdateQuantity(ctx, "A", 5))
	require.Equal(t, mirrored, local.lines)
}

func TestRollbackOnRemoteUpdateAndRemoveFailure(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{}
	store := New(local, testPricing(), nil)
	ctx := context.Background()
	store.Resolve(ctx, remote)

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	before := store.Items()

	remote.setErr = errors.New("boom")
	require.Error(t, store.UpdateQuantity(ctx, "A", 5))
	require.Equal(t, before, store.Items())

	remote.remErr = errors.New("boom")
	require.Error(t, store.RemoveItem(ctx, "A"))
	require.Equal(t, before, store.Items())
}

func TestClearIsIdempotentAndSwallowsRemoteFailure(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{clearErr: errors.New("boom")}
	store := New(local, testPricing(), nil)
	ctx := context.Background()
	store.Resolve(ctx, remote)

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.NoError(t, store.Clear(ctx))
	require.Empty(t, store.Items())
	require.NoError(t, store.Clear(ctx))
	require.Empty(t, store.Items())
}

func TestGuestClearDeletesLocalEntry(t *testing.T) {
	store, local := guestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.NoError(t, store.Clear(ctx))
	require.Equal(t, 1, local.deletes)
	require.Empty(t, local.lines)
}

func TestGuestMutationsMirrorLocalStore(t *testing.T) {
	store, local := guestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, snapshot("A", "10"), 2))
	require.Len(t, local.lines, 1)
	require.Equal(t, 2, local.lines[0].Quantity)

	require.NoError(t, store.UpdateQuantity(ctx, "A", 3))
	require.Equal(t, 3, local.lines[0].Quantity)
}

func TestGuestCheckoutScenario(t *testing.T) {
	store, _ := guestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, snapshot("P1", "20"), 2))
	require.Equal(t, 2, store.Count())

	totals := store.Totals()
	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(40)), "subtotal %s", totals.Subtotal)
	require.True(t, totals.Shipping.Equal(decimal.RequireFromString("9.99")))

	require.NoError(t, store.UpdateQuantity(ctx, "P1", 3))
	totals = store.Totals()
	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(60)))
	require.True(t, totals.Shipping.IsZero())
}

func TestMutationsBeforeResolveStayInMemory(t *testing.T) {
	store := New(&fakeLocal{}, testPricing(), nil)
	require.Equal(t, IdentityUnknown, store.CurrentIdentity())

	require.NoError(t, store.AddItem(context.Background(), snapshot("A", "10"), 1))
	require.True(t, store.IsInCart("A"))
}

func TestAddedAtIsStamped(t *testing.T) {
	store, _ := guestStore(t)
	start := time.Now()

	require.NoError(t, store.AddItem(context.Background(), snapshot("A", "10"), 1))
	items := store.Items()
	require.False(t, items[0].AddedAt.Before(start))
}

func TestNewFromConfigRoundTripsThroughDisk(t *testing.T) {
	cfg := config.CartConfig{
		TaxRate:               decimal.RequireFromString("0.10"),
		ShippingFee:           decimal.RequireFromString("9.99"),
		FreeShippingThreshold: decimal.RequireFromString("50"),
		LocalDir:              t.TempDir(),
	}

	store := NewFromConfig(cfg, nil)
	store.Resolve(context.Background(), nil)
	require.NoError(t, store.AddItem(context.Background(), snapshot("A", "12.50"), 2))

	reopened := NewFromConfig(cfg, nil)
	reopened.Resolve(context.Background(), nil)
	require.Equal(t, 2, reopened.ItemQuantity("A"))
}
