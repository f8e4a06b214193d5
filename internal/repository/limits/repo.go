// Package limits persists per-provider budget limits through a store blob.
package limits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/store"
)

// Persisted layout (api_budgets.json):
//
//	{ provider: { daily_limit, monthly_limit, daily_cost_limit,
//	  monthly_cost_limit, cost_per_request } }   (all nullable)
type limitsRow struct {
	DailyLimit       *int64   `json:"daily_limit"`
	MonthlyLimit     *int64   `json:"monthly_limit"`
	DailyCostLimit   *float64 `json:"daily_cost_limit"`
	MonthlyCostLimit *float64 `json:"monthly_cost_limit"`
	CostPerRequest   *float64 `json:"cost_per_request"`
}

// Repository serializes the limits map as one JSON document.
type Repository struct {
	blob store.Blob
}

// New creates a limits repository over the given blob.
func New(blob store.Blob) *Repository {
	return &Repository{blob: blob}
}

// Load hydrates the limits map. Returns store.ErrNotFound (with an empty
// map) when nothing was persisted yet, letting the caller seed defaults.
func (r *Repository) Load(ctx context.Context) (map[string]budget.Limits, error) {
	out := make(map[string]budget.Limits)

	data, err := r.blob.Load(ctx)
	if err != nil {
		return out, err
	}

	var state map[string]limitsRow
	if err := json.Unmarshal(data, &state); err != nil {
		return make(map[string]budget.Limits), fmt.Errorf("parse limits state: %w", err)
	}

	for provider, row := range state {
		out[provider] = budget.Limits{
			DailyCalls:   row.DailyLimit,
			MonthlyCalls: row.MonthlyLimit,
			DailyCost:    row.DailyCostLimit,
			MonthlyCost:  row.MonthlyCostLimit,
			CostPerCall:  row.CostPerRequest,
		}
	}
	return out, nil
}

// Save writes the full limits map.
func (r *Repository) Save(ctx context.Context, m map[string]budget.Limits) error {
	state := make(map[string]limitsRow, len(m))
	for provider, l := range m {
		state[provider] = limitsRow{
			DailyLimit:       l.DailyCalls,
			MonthlyLimit:     l.MonthlyCalls,
			DailyCostLimit:   l.DailyCost,
			MonthlyCostLimit: l.MonthlyCost,
			CostPerRequest:   l.CostPerCall,
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal limits state: %w", err)
	}
	if err := r.blob.Save(ctx, data); err != nil {
		return fmt.Errorf("save limits state: %w", err)
	}
	return nil
}
