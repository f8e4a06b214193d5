package governor

import (
	"context"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/domain/usage"
)

// LedgerRepository persists the full usage ledger.
type LedgerRepository interface {
	Load(ctx context.Context) (*usage.Ledger, error)
	Save(ctx context.Context, l *usage.Ledger) error
}

// LimitsRepository persists the per-provider limits map.
type LimitsRepository interface {
	Load(ctx context.Context) (map[string]budget.Limits, error)
	Save(ctx context.Context, m map[string]budget.Limits) error
}
