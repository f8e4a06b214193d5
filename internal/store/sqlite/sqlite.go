// Package sqlite persists state blobs as rows in a single-file SQLite
// database, one row per blob name.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/woo-consulting/apimeter/internal/store"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS state (
	name TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs the migration.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if _, err := db.Exec(createStateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &Store{db: db}, nil
}

// Blob returns the named blob view.
func (s *Store) Blob(name string) store.Blob {
	return &blob{db: s.db, name: name}
}

// Close closes the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

type blob struct {
	db   *sql.DB
	name string
}

func (b *blob) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM state WHERE name = ?`, b.name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, &store.Error{Op: store.OpLoad, Name: b.name, Err: err}
	}
	return data, nil
}

func (b *blob) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO state (name, data, updated_at) VALUES (?, ?, ?)`,
		b.name, data, time.Now().UTC(),
	)
	if err != nil {
		return &store.Error{Op: store.OpSave, Name: b.name, Err: err}
	}
	return nil
}
