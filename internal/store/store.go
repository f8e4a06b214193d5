// Package store defines the persistence boundary for governor state. State
// is a single opaque blob per concern, read in full and written in full;
// drivers live in subpackages (file, memory, redis, sqlite).
package store

import "context"

// Blob is one named piece of persisted state.
type Blob interface {
	// Load returns the full persisted payload, or ErrNotFound when nothing
	// has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the persisted payload.
	Save(ctx context.Context, data []byte) error
}

// Op names for error context.
const (
	OpLoad = "load"
	OpSave = "save"
)

// Error wraps a driver error with the operation and blob name.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string { return e.Op + " " + e.Name + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
