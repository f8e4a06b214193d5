// Package governor is the budget-aware API usage governor: it records
// billable calls in the usage ledger, checks the result against configured
// limits, and serves the reporting views for the dashboard.
package governor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/domain/usage"
	"github.com/woo-consulting/apimeter/internal/metrics"
	"github.com/woo-consulting/apimeter/internal/store"
)

// PeriodTotals is a calls/cost pair for one period (today or this month).
type PeriodTotals struct {
	Calls int64
	Cost  float64
}

// ProviderStatus bundles everything the dashboard shows for one provider.
type ProviderStatus struct {
	Limits   budget.Limits
	Today    PeriodTotals
	Month    PeriodTotals
	Decision budget.Decision
}

// Dashboard is the full operational view: current status plus trailing
// 7-day and 30-day reports.
type Dashboard struct {
	CurrentStatus map[string]ProviderStatus
	WeeklyReport  usage.Report
	MonthlyReport usage.Report
}

// Service owns the ledger and limits state. All operations are serialized
// behind one mutex: record-update-persist must be atomic with respect to
// concurrent callers or two requests can clobber each other's totals.
type Service struct {
	mu         sync.Mutex
	ledger     *usage.Ledger
	limits     map[string]budget.Limits
	ledgerRepo LedgerRepository
	limitsRepo LimitsRepository
	logger     *zap.Logger
	now        func() time.Time
}

// New loads persisted state and returns a ready governor. A missing limits
// blob is seeded with the given defaults; a missing ledger blob starts
// empty. Corrupt state falls back to empty and is logged, never fatal.
func New(
	ctx context.Context,
	ledgerRepo LedgerRepository,
	limitsRepo LimitsRepository,
	seed map[string]budget.Limits,
	logger *zap.Logger,
) *Service {
	s := &Service{
		ledgerRepo: ledgerRepo,
		limitsRepo: limitsRepo,
		logger:     logger,
		now:        time.Now,
	}

	ledger, err := ledgerRepo.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error("Failed to load usage state, starting empty", zap.Error(err))
	}
	if ledger == nil {
		ledger = usage.NewLedger()
	}
	s.ledger = ledger

	limits, err := limitsRepo.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		limits = make(map[string]budget.Limits, len(seed))
		for provider, l := range seed {
			limits[provider] = l
		}
		if err := limitsRepo.Save(ctx, limits); err != nil {
			logger.Error("Failed to persist seeded limits", zap.Error(err))
		}
		logger.Info("Seeded default budget limits", zap.Int("providers", len(limits)))
	case err != nil:
		logger.Error("Failed to load limits state, starting empty", zap.Error(err))
	}
	if limits == nil {
		limits = make(map[string]budget.Limits)
	}
	s.limits = limits

	return s
}

// RecordCall logs one billable call for (provider, today) and persists the
// ledger. It never rejects; enforcement is the caller's job via Evaluate.
func (s *Service) RecordCall(ctx context.Context, provider, endpoint string, units int64, cost float64) usage.DailySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(ctx, provider, endpoint, units, cost)
}

// RecordAndEvaluate records a call and evaluates the provider's budget in
// one critical section, so the decision sees exactly the state the record
// produced.
func (s *Service) RecordAndEvaluate(ctx context.Context, provider, endpoint string, units int64, cost float64) (usage.DailySnapshot, budget.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.recordLocked(ctx, provider, endpoint, units, cost)
	return snap, s.evaluateLocked(provider)
}

// Evaluate classifies the provider's current usage against its limits.
// Unknown providers are always ok.
func (s *Service) Evaluate(_ context.Context, provider string) budget.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluateLocked(provider)
}

// Report builds a trailing-window usage report. Empty provider means all.
func (s *Service) Report(_ context.Context, provider string, days int) usage.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BuildReport(provider, days, s.now())
}

// StatusAll returns limits, today's and this month's totals, and the
// current decision for every configured provider. Read-only.
func (s *Service) StatusAll(_ context.Context) map[string]ProviderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	day := usage.DayKey(now)
	month := usage.MonthKey(now)

	out := make(map[string]ProviderStatus, len(s.limits))
	for provider, l := range s.limits {
		daily := s.ledger.Daily(provider, day)
		monthly := s.ledger.Monthly(provider, month)
		out[provider] = ProviderStatus{
			Limits:   l,
			Today:    PeriodTotals{Calls: daily.TotalCalls(), Cost: daily.TotalCost()},
			Month:    PeriodTotals{Calls: monthly.Calls, Cost: monthly.Cost},
			Decision: s.evaluateLocked(provider),
		}
	}
	return out
}

// Dashboard bundles current status with 7-day and 30-day reports.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	return Dashboard{
		CurrentStatus: s.StatusAll(ctx),
		WeeklyReport:  s.Report(ctx, "", 7),
		MonthlyReport: s.Report(ctx, "", 30),
	}
}

// UpdateLimits merges the non-nil fields of patch into the provider's
// limits (creating the entry if absent) and persists. The merged result is
// visible to the very next Evaluate.
func (s *Service) UpdateLimits(ctx context.Context, provider string, patch budget.Limits) (budget.Limits, error) {
	if err := patch.Validate(); err != nil {
		return budget.Limits{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.limits[provider].Merge(patch)
	s.limits[provider] = merged

	if err := s.limitsRepo.Save(ctx, s.limits); err != nil {
		s.logger.Error("Failed to persist limits",
			zap.String("provider", provider), zap.Error(err))
	}
	return merged, nil
}

// Limits returns the configured limits for a provider.
func (s *Service) Limits(provider string) (budget.Limits, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limits[provider]
	return l, ok
}

func (s *Service) recordLocked(ctx context.Context, provider, endpoint string, units int64, cost float64) usage.DailySnapshot {
	snap := s.ledger.Record(provider, endpoint, units, cost, s.now())

	// Write-through. On failure the in-memory ledger stays authoritative;
	// only durability across a crash is at risk until the next save.
	if err := s.ledgerRepo.Save(ctx, s.ledger); err != nil {
		s.logger.Error("Failed to persist usage state",
			zap.String("provider", provider), zap.Error(err))
	}

	metrics.APICallsTotal.WithLabelValues(provider, endpoint).Inc()
	metrics.APICostDollarsTotal.WithLabelValues(provider).Add(cost)
	metrics.APIUnitsTotal.WithLabelValues(provider).Add(float64(units))

	return snap
}

func (s *Service) evaluateLocked(provider string) budget.Decision {
	now := s.now()
	daily := s.ledger.Daily(provider, usage.DayKey(now))
	monthly := s.ledger.Monthly(provider, usage.MonthKey(now))

	snap := budget.Snapshot{
		DailyCalls:   daily.TotalCalls(),
		DailyCost:    daily.TotalCost(),
		MonthlyCalls: monthly.Calls,
		MonthlyCost:  monthly.Cost,
	}

	var limits *budget.Limits
	if l, ok := s.limits[provider]; ok {
		limits = &l
	}

	d := budget.Evaluate(limits, snap)
	if d.Blocked() {
		metrics.BudgetBlockedTotal.WithLabelValues(provider).Inc()
		s.logger.Warn("Budget limit reached",
			zap.String("provider", provider),
			zap.Strings("warnings", d.Warnings),
		)
	}
	return d
}
