// Package budget holds per-provider spending limits and the policy decision
// produced when current usage is checked against them.
package budget

import (
	"errors"
	"fmt"
)

// ErrExceeded signals that a provider's budget is exhausted. The governor
// never returns it itself; provider wrappers translate a blocked Decision
// into this sentinel for their callers.
var ErrExceeded = errors.New("budget exceeded")

// Limits are a provider's configured ceilings. A nil field means unlimited.
type Limits struct {
	DailyCalls   *int64
	MonthlyCalls *int64
	DailyCost    *float64
	MonthlyCost  *float64
	// CostPerCall is informational: callers may use it to estimate cost
	// before recording. It is never part of a limit check.
	CostPerCall *float64
}

// Merge overlays non-nil fields of patch onto l and returns the result.
func (l Limits) Merge(patch Limits) Limits {
	if patch.DailyCalls != nil {
		l.DailyCalls = patch.DailyCalls
	}
	if patch.MonthlyCalls != nil {
		l.MonthlyCalls = patch.MonthlyCalls
	}
	if patch.DailyCost != nil {
		l.DailyCost = patch.DailyCost
	}
	if patch.MonthlyCost != nil {
		l.MonthlyCost = patch.MonthlyCost
	}
	if patch.CostPerCall != nil {
		l.CostPerCall = patch.CostPerCall
	}
	return l
}

// Validate rejects negative ceilings.
func (l Limits) Validate() error {
	if l.DailyCalls != nil && *l.DailyCalls < 0 {
		return fmt.Errorf("daily_limit must be non-negative, got %d", *l.DailyCalls)
	}
	if l.MonthlyCalls != nil && *l.MonthlyCalls < 0 {
		return fmt.Errorf("monthly_limit must be non-negative, got %d", *l.MonthlyCalls)
	}
	if l.DailyCost != nil && *l.DailyCost < 0 {
		return fmt.Errorf("daily_cost_limit must be non-negative, got %g", *l.DailyCost)
	}
	if l.MonthlyCost != nil && *l.MonthlyCost < 0 {
		return fmt.Errorf("monthly_cost_limit must be non-negative, got %g", *l.MonthlyCost)
	}
	if l.CostPerCall != nil && *l.CostPerCall < 0 {
		return fmt.Errorf("cost_per_request must be non-negative, got %g", *l.CostPerCall)
	}
	return nil
}
