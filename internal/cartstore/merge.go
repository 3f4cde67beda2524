package cartstore

import (
	"context"

	"go.uber.org/multierr"

	"github.com/plazagoods/storefront-backend/pkg/types"
)

// Resolve is called once auth resolution completes. A nil remote means the
// session is a guest and the cart hydrates from the local store; a non-nil
// remote hydrates from the server and reconciles any guest cart accumulated
// before login. Resolve never returns an error: persistence failures fall
// back to the local contents or an empty cart.
func (s *Store) Resolve(ctx context.Context, remote RemoteCart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	localLines := s.loadLocalLocked(ctx)

	if remote == nil {
		s.identity = IdentityGuest
		s.remote = nil
		s.items = localLines
		return
	}

	s.identity = IdentityUser
	s.remote = remote

	serverLines, err := remote.Fetch(ctx)
	if err != nil {
		// Server unavailable: keep whatever the guest cart held and skip the
		// backfill so a later fetch cannot double quantities.
		if s.logg != nil {
			s.logg.Error(ctx, "fetching remote cart failed, using local contents", err)
		}
		s.items = localLines
		return
	}

	merged, localOnly := mergeCarts(serverLines, localLines)
	s.items = merged
	s.mirrorLocalLocked(ctx)

	if len(localOnly) > 0 {
		s.syncWG.Add(1)
		go s.backfillRemote(ctx, localOnly)
	}
}

// Logout snapshots a non-empty cart into the local store so the guest session
// keeps what existed at logout, then detaches the remote. Best effort, not a
// running sync.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = IdentityGuest
	s.remote = nil

	if len(s.items) == 0 || s.local == nil {
		return
	}
	if err := s.local.Save(s.snapshotLocked()); err != nil && s.logg != nil {
		s.logg.Error(ctx, "persisting cart at logout failed", err)
	}
}

// Wait blocks until any background merge backfill has finished. Intended for
// shutdown paths and tests.
func (s *Store) Wait() {
	s.syncWG.Wait()
}

// mergeCarts reconciles a server cart with a locally persisted guest cart.
// Server entries seed the result and win ties on product attributes;
// quantities for products present on both sides are summed rather than
// overwritten. The second return value holds the local lines that were absent
// server-side and still need to be pushed.
func mergeCarts(server, local []types.CartLine) (merged, localOnly []types.CartLine) {
	merged = make([]types.CartLine, len(server))
	copy(merged, server)

	index := make(map[string]int, len(server))
	for i, line := range server {
		index[line.ProductID] = i
	}

	for _, line := range local {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
		localOnly = append(localOnly, line)
	}
	return merged, localOnly
}

// backfillRemote pushes previously local-only lines to the server. Per-item
// failures do not abort the loop or touch the already-merged in-memory state;
// they are aggregated and logged once.
func (s *Store) backfillRemote(ctx context.Context, lines []types.CartLine) {
	defer s.syncWG.Done()

	s.mu.Lock()
	remote := s.remote
	s.mu.Unlock()
	if remote == nil {
		return
	}

	var errs error
	for _, line := range lines {
		if err := remote.Add(ctx, line.ProductID, line.Quantity, line.Product); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil && s.logg != nil {
		s.logg.Error(ctx, "backfilling guest cart items to server failed", errs)
	}
}

func (s *Store) loadLocalLocked(ctx context.Context) []types.CartLine {
	if s.local == nil {
		return nil
	}
	lines, err := s.local.Load()
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "loading local cart failed, starting empty", err)
		}
		return nil
	}
	return lines
}
