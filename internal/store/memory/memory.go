// Package memory is an in-process blob store for tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/woo-consulting/apimeter/internal/store"
)

// Store keeps blobs in a map.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Blob returns the named blob view.
func (s *Store) Blob(name string) store.Blob {
	return &blob{store: s, name: name}
}

// Close is a no-op.
func (s *Store) Close() {}

type blob struct {
	store *Store
	name  string
}

func (b *blob) Load(_ context.Context) ([]byte, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	data, ok := b.store.blobs[b.name]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *blob) Save(_ context.Context, data []byte) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	b.store.blobs[b.name] = cp
	return nil
}
