// Package file persists state blobs as JSON files in a data directory, the
// same layout the dashboard originally shipped with (data/api_usage.json,
// data/api_budgets.json).
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woo-consulting/apimeter/internal/store"
)

// Store is a directory of blob files.
type Store struct {
	dir string
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Blob returns the named blob, stored as <dir>/<name>.json.
func (s *Store) Blob(name string) store.Blob {
	return &blob{name: name, path: filepath.Join(s.dir, name+".json")}
}

// Close is a no-op; files hold no connection state.
func (s *Store) Close() {}

type blob struct {
	name string
	path string
}

func (b *blob) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, &store.Error{Op: store.OpLoad, Name: b.name, Err: err}
	}
	return data, nil
}

// Save writes to a temp file and renames it over the target, so a crash
// mid-write never leaves a truncated payload behind.
func (b *blob) Save(_ context.Context, data []byte) error {
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &store.Error{Op: store.OpSave, Name: b.name, Err: err}
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return &store.Error{Op: store.OpSave, Name: b.name, Err: err}
	}
	return nil
}
