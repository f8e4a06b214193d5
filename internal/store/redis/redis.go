// Package redis persists state blobs as single Redis keys via rueidis.
// The read-in-full/write-in-full discipline of the file store carries over:
// one GET on load, one SET on save.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/woo-consulting/apimeter/internal/store"
)

// Config holds connection parameters.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store wraps a rueidis client.
type Store struct {
	client rueidis.Client
	prefix string
}

// New creates a Redis-backed blob store.
func New(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "apimeter:"
	}
	return &Store{client: client, prefix: prefix}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Blob returns the named blob, stored at <prefix>state:<name>.
func (s *Store) Blob(name string) store.Blob {
	return &blob{store: s, name: name, key: s.prefix + "state:" + name}
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

type blob struct {
	store *Store
	name  string
	key   string
}

func (b *blob) Load(ctx context.Context) ([]byte, error) {
	cmd := b.store.client.B().Get().Key(b.key).Build()
	data, err := b.store.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, store.ErrNotFound
		}
		return nil, &store.Error{Op: store.OpLoad, Name: b.name, Err: err}
	}
	return data, nil
}

func (b *blob) Save(ctx context.Context, data []byte) error {
	cmd := b.store.client.B().Set().Key(b.key).Value(string(data)).Build()
	if err := b.store.client.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpSave, Name: b.name, Err: err}
	}
	return nil
}
