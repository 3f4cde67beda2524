package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/plazagoods/storefront-backend/pkg/types"
)

const cartFileName = "cart.json"

// Store persists the guest cart as a single JSON file under a device-scoped
// directory. All operations are synchronous; there is no remote round trip.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, cartFileName)
}

// Load reads the persisted cart. A missing file reads as an empty cart; a
// corrupt file also reads as empty but reports the parse error so callers can
// log it.
func (s *Store) Load() ([]types.CartLine, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cart file: %w", err)
	}

	var lines []types.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("parsing cart file: %w", err)
	}
	return lines, nil
}

// Save writes the full cart contents, replacing any previous entry.
func (s *Store) Save(lines []types.CartLine) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cart dir: %w", err)
	}

	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing cart file: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("replacing cart file: %w", err)
	}
	return nil
}

// Delete removes the persisted entry entirely. Deleting an absent entry is a no-op.
func (s *Store) Delete() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cart file: %w", err)
	}
	return nil
}
