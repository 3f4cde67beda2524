package cartstore

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/logger"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

// Store owns the in-memory cart for one session. It is the sole mutator of
// its line items: callers read published copies and invoke the operations
// below. The mutex is held across remote calls, so two rapid mutations of the
// same product are applied one after the other instead of racing.
type Store struct {
	mu       sync.Mutex
	items    []types.CartLine
	identity Identity
	remote   RemoteCart

	local   LocalStore
	pricing Pricing
	logg    *logger.Logger

	syncWG sync.WaitGroup
	now    func() time.Time
}

// New constructs a store in the IdentityUnknown state. No persistence is
// touched until Resolve is called.
func New(local LocalStore, pricing Pricing, logg *logger.Logger) *Store {
	return &Store{
		local:   local,
		pricing: pricing,
		logg:    logg,
		now:     time.Now,
	}
}

// AddItem merges the snapshot into the cart: an existing line for the same
// product has its quantity incremented, otherwise a new line is appended.
// The mutation is applied locally first; when authenticated, a failed remote
// call reverts it and the error is returned for the UI to surface.
func (s *Store) AddItem(ctx context.Context, snapshot types.ProductSnapshot, quantity int) error {
	productID := strings.TrimSpace(snapshot.ID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()

	merged := false
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, types.CartLine{
			ProductID: productID,
			Product:   snapshot,
			Quantity:  quantity,
			AddedAt:   s.now(),
		})
	}
	s.mirrorLocalLocked(ctx)

	if s.remote != nil {
		if err := s.remote.Add(ctx, productID, quantity, snapshot); err != nil {
			s.revertLocked(ctx, prev)
			return wrapRemoteErr(err, "add cart item")
		}
	}
	return nil
}

// RemoveItem drops the matching line. Removing an absent product is a no-op
// and issues no remote call.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeItemLocked(ctx, productID)
}

func (s *Store) removeItemLocked(ctx context.Context, productID string) error {
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		return nil
	}

	prev := s.snapshotLocked()
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mirrorLocalLocked(ctx)

	if s.remote != nil {
		if err := s.remote.Remove(ctx, productID); err != nil {
			s.revertLocked(ctx, prev)
			return wrapRemoteErr(err, "remove cart item")
		}
	}
	return nil
}

// UpdateQuantity replaces the matching line's quantity. A non-positive
// quantity is a removal.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeItemLocked(ctx, productID)
	}

	idx := s.indexOfLocked(productID)
	if idx < 0 {
		return nil
	}

	prev := s.snapshotLocked()
	s.items[idx].Quantity = quantity
	s.mirrorLocalLocked(ctx)

	if s.remote != nil {
		if err := s.remote.SetQuantity(ctx, productID, quantity); err != nil {
			s.revertLocked(ctx, prev)
			return wrapRemoteErr(err, "update cart quantity")
		}
	}
	return nil
}

// Clear empties the cart. Remote failures are logged, not returned: the UI is
// allowed to show an empty cart even if the server-side clear partially
// failed. A guest clear deletes the local entry entirely.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	if s.remote != nil {
		if err := s.remote.Clear(ctx); err != nil && s.logg != nil {
			s.logg.Error(ctx, "remote cart clear failed", err)
		}
		return nil
	}

	if s.local != nil {
		if err := s.local.Delete(); err != nil && s.logg != nil {
			s.logg.Error(ctx, "deleting local cart failed", err)
		}
	}
	return nil
}

// IsInCart reports whether the product currently has a line item.
func (s *Store) IsInCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(productID) >= 0
}

// ItemQuantity returns the current quantity for the product, zero when absent.
func (s *Store) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOfLocked(productID); idx >= 0 {
		return s.items[idx].Quantity
	}
	return 0
}

// Items returns a copy of the current line items in stable display order.
func (s *Store) Items() []types.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Count is the sum of all line quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// CurrentIdentity reports the resolved identity state.
func (s *Store) CurrentIdentity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Store) indexOfLocked(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []types.CartLine {
	out := make([]types.CartLine, len(s.items))
	copy(out, s.items)
	return out
}

// revertLocked restores the pre-mutation line items and puts the local mirror
// back exactly as it was: the optimistic save is part of the state being
// reverted, so an empty pre-mutation cart clears the entry rather than leaving
// the rolled-back line behind for the next guest session.
func (s *Store) revertLocked(ctx context.Context, prev []types.CartLine) {
	s.items = prev
	if s.local == nil {
		return
	}
	if len(prev) == 0 {
		if err := s.local.Delete(); err != nil && s.logg != nil {
			s.logg.Error(ctx, "clearing local cart mirror after rollback failed", err)
		}
		return
	}
	if err := s.local.Save(s.snapshotLocked()); err != nil && s.logg != nil {
		s.logg.Error(ctx, "restoring local cart mirror after rollback failed", err)
	}
}

// mirrorLocalLocked mirrors the in-memory cart into the local store as a
// backup: always for guests, and only while non-empty for authenticated
// users so a logged-in clear does not leave a stale guest cart behind.
func (s *Store) mirrorLocalLocked(ctx context.Context) {
	if s.local == nil {
		return
	}
	if s.remote != nil && len(s.items) == 0 {
		return
	}
	if err := s.local.Save(s.snapshotLocked()); err != nil && s.logg != nil {
		s.logg.Error(ctx, "mirroring cart to local store failed", err)
	}
}

func wrapRemoteErr(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
