// Package ledger persists the usage ledger through a store blob.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/woo-consulting/apimeter/internal/domain/usage"
	"github.com/woo-consulting/apimeter/internal/store"
)

// Repository serializes the full ledger state as one JSON document.
type Repository struct {
	blob store.Blob
}

// New creates a ledger repository over the given blob.
func New(blob store.Blob) *Repository {
	return &Repository{blob: blob}
}

// Load hydrates the ledger from storage. Returns store.ErrNotFound (with an
// empty ledger) when nothing was persisted yet; a corrupt payload also
// yields an empty ledger plus the parse error so the caller can log it.
func (r *Repository) Load(ctx context.Context) (*usage.Ledger, error) {
	l := usage.NewLedger()

	data, err := r.blob.Load(ctx)
	if err != nil {
		return l, err
	}

	var state map[string]map[string]bucketRow
	if err := json.Unmarshal(data, &state); err != nil {
		return usage.NewLedger(), fmt.Errorf("parse usage state: %w", err)
	}

	for provider, days := range state {
		for day, row := range days {
			l.Restore(provider, day, bucketFromRow(row))
		}
	}
	return l, nil
}

// Save writes the full ledger state.
func (r *Repository) Save(ctx context.Context, l *usage.Ledger) error {
	state := make(map[string]map[string]bucketRow)
	for _, provider := range l.Providers() {
		days := make(map[string]bucketRow)
		for _, day := range l.Days(provider) {
			days[day] = bucketToRow(l.Daily(provider, day))
		}
		state[provider] = days
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal usage state: %w", err)
	}
	if err := r.blob.Save(ctx, data); err != nil {
		return fmt.Errorf("save usage state: %w", err)
	}
	return nil
}
