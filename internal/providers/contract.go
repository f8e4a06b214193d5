// Package providers wraps the governed third-party APIs. Every wrapper
// follows the same contract: perform the upstream call, compute units and
// cost, record the call, then act on the budget decision — returning
// budget.ErrExceeded instead of the result when the provider is blocked.
// Failed upstream calls are still recorded as zero-cost attempts.
package providers

import (
	"context"
	"errors"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/domain/usage"
)

// Provider keys as stored in the ledger and limits map.
const (
	ProviderGemini  = "GEMINI_API"
	ProviderPlaces  = "GOOGLE_PLACES_API"
	ProviderWeather = "OPENWEATHER_API"
)

// ErrUpstream signals that the underlying API call failed for reasons
// unrelated to budget.
var ErrUpstream = errors.New("upstream provider error")

// Governor is the consumer interface wrappers need from the usage governor.
type Governor interface {
	RecordCall(ctx context.Context, provider, endpoint string, units int64, cost float64) usage.DailySnapshot
	RecordAndEvaluate(ctx context.Context, provider, endpoint string, units int64, cost float64) (usage.DailySnapshot, budget.Decision)
}
