// Package savings tracks calls routed to free API alternatives and the
// cost avoided versus their paid Google equivalents.
package savings

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/store"
)

// Tracked counters. The google_* counters exist for the equivalent-cost
// estimate; the free_* counters accrue savings per call.
const (
	CounterGoogleMaps    = "google_maps"
	CounterGooglePlaces  = "google_places"
	CounterFreeGeocoding = "free_geocoding"
	CounterFreeElevation = "free_elevation"
	CounterFreeTimezone  = "free_timezone"
)

// Per-call savings versus the Google equivalent, in dollars.
var savingsPerCall = map[string]float64{
	CounterFreeGeocoding: 0.005,
	CounterFreeElevation: 0.005,
	CounterFreeTimezone:  0.005,
}

const (
	googleMapsCostPerCall   = 0.005
	googlePlacesCostPerCall = 0.0025
)

type state struct {
	TotalSavings   float64          `json:"total_savings"`
	MonthlySavings float64          `json:"monthly_savings"`
	APICalls       map[string]int64 `json:"api_calls"`
	LastUpdated    time.Time        `json:"last_updated"`
}

// Report is the savings view for the dashboard. Dollar figures are rounded
// to cents.
type Report struct {
	FreeAPICalls         map[string]int64
	TotalSavings         float64
	MonthlySavings       float64
	GoogleEquivalentCost float64
	LastUpdated          time.Time
}

// Service owns the savings counters, persisted write-through like the
// governor's ledger.
type Service struct {
	mu     sync.Mutex
	state  state
	blob   store.Blob
	logger *zap.Logger
	now    func() time.Time
}

// New loads persisted counters, seeding zeroes on first start.
func New(ctx context.Context, blob store.Blob, logger *zap.Logger) *Service {
	s := &Service{blob: blob, logger: logger, now: time.Now}
	s.state = initialState()

	data, err := blob.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.persist(ctx)
	case err != nil:
		logger.Error("Failed to load savings state, starting empty", zap.Error(err))
	default:
		if err := json.Unmarshal(data, &s.state); err != nil {
			logger.Error("Corrupt savings state, starting empty", zap.Error(err))
			s.state = initialState()
		}
		// Counters added after the state was first persisted.
		for name := range initialState().APICalls {
			if _, ok := s.state.APICalls[name]; !ok {
				s.state.APICalls[name] = 0
			}
		}
	}
	return s
}

func initialState() state {
	return state{
		APICalls: map[string]int64{
			CounterGoogleMaps:    0,
			CounterGooglePlaces:  0,
			CounterFreeGeocoding: 0,
			CounterFreeElevation: 0,
			CounterFreeTimezone:  0,
		},
	}
}

// LogFreeCall counts a call to a free alternative and accrues its savings.
// Unknown counter names are ignored.
func (s *Service) LogFreeCall(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.APICalls[name]; !ok {
		return
	}
	s.state.APICalls[name]++

	if saved, ok := savingsPerCall[name]; ok {
		s.state.TotalSavings += saved
		s.state.MonthlySavings += saved
	}
	s.state.LastUpdated = s.now().UTC()
	s.persist(ctx)
}

// GetReport returns the current savings summary.
func (s *Service) GetReport(_ context.Context) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make(map[string]int64, len(s.state.APICalls))
	for name, n := range s.state.APICalls {
		calls[name] = n
	}

	googleCost := float64(s.state.APICalls[CounterGoogleMaps])*googleMapsCostPerCall +
		float64(s.state.APICalls[CounterGooglePlaces])*googlePlacesCostPerCall

	return Report{
		FreeAPICalls:         calls,
		TotalSavings:         roundCents(s.state.TotalSavings),
		MonthlySavings:       roundCents(s.state.MonthlySavings),
		GoogleEquivalentCost: roundCents(googleCost),
		LastUpdated:          s.state.LastUpdated,
	}
}

// ResetMonthly zeroes the monthly savings and all call counters. Total
// savings survive the reset.
func (s *Service) ResetMonthly(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.MonthlySavings = 0
	for name := range s.state.APICalls {
		s.state.APICalls[name] = 0
	}
	s.state.LastUpdated = s.now().UTC()
	s.persist(ctx)
}

func (s *Service) persist(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("Failed to marshal savings state", zap.Error(err))
		return
	}
	if err := s.blob.Save(ctx, data); err != nil {
		s.logger.Error("Failed to persist savings state", zap.Error(err))
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
