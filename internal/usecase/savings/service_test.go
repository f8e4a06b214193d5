package savings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/store/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := New(context.Background(), memory.New().Blob("cost_log"), zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestNew_SeedsZeroCounters(t *testing.T) {
	s := newTestService(t)

	r := s.GetReport(context.Background())
	if len(r.FreeAPICalls) != 5 {
		t.Fatalf("expected 5 counters, got %d", len(r.FreeAPICalls))
	}
	for name, n := range r.FreeAPICalls {
		if n != 0 {
			t.Errorf("counter %s should start at 0, got %d", name, n)
		}
	}
	if r.TotalSavings != 0 || r.MonthlySavings != 0 || r.GoogleEquivalentCost != 0 {
		t.Errorf("fresh state must have zero savings: %+v", r)
	}
}

func TestLogFreeCall_AccruesSavings(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.LogFreeCall(ctx, CounterFreeGeocoding)
	}
	s.LogFreeCall(ctx, CounterFreeElevation)

	r := s.GetReport(ctx)
	if r.FreeAPICalls[CounterFreeGeocoding] != 3 {
		t.Errorf("expected 3 geocoding calls, got %d", r.FreeAPICalls[CounterFreeGeocoding])
	}
	if r.TotalSavings != 0.02 {
		t.Errorf("expected total savings 0.02, got %g", r.TotalSavings)
	}
	if r.MonthlySavings != 0.02 {
		t.Errorf("expected monthly savings 0.02, got %g", r.MonthlySavings)
	}
	if !r.LastUpdated.Equal(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected last updated: %v", r.LastUpdated)
	}
}

func TestLogFreeCall_GoogleCountersEstimateEquivalentCost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Paid-API counters accrue no savings, only the equivalent-cost estimate.
	s.LogFreeCall(ctx, CounterGoogleMaps)
	s.LogFreeCall(ctx, CounterGoogleMaps)
	s.LogFreeCall(ctx, CounterGooglePlaces)

	r := s.GetReport(ctx)
	if r.TotalSavings != 0 {
		t.Errorf("google counters must not accrue savings, got %g", r.TotalSavings)
	}
	if r.GoogleEquivalentCost != 0.01 {
		t.Errorf("expected equivalent cost 0.01, got %g", r.GoogleEquivalentCost)
	}
}

func TestLogFreeCall_UnknownCounterIgnored(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.LogFreeCall(ctx, "nope")

	r := s.GetReport(ctx)
	if _, ok := r.FreeAPICalls["nope"]; ok {
		t.Error("unknown counter must not be created")
	}
	if r.TotalSavings != 0 {
		t.Errorf("unknown counter must not accrue savings, got %g", r.TotalSavings)
	}
}

func TestResetMonthly_KeepsTotalSavings(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.LogFreeCall(ctx, CounterFreeTimezone)
	s.LogFreeCall(ctx, CounterFreeTimezone)
	s.ResetMonthly(ctx)

	r := s.GetReport(ctx)
	if r.TotalSavings != 0.01 {
		t.Errorf("total savings must survive the reset, got %g", r.TotalSavings)
	}
	if r.MonthlySavings != 0 {
		t.Errorf("monthly savings must be zeroed, got %g", r.MonthlySavings)
	}
	if r.FreeAPICalls[CounterFreeTimezone] != 0 {
		t.Errorf("counters must be zeroed, got %d", r.FreeAPICalls[CounterFreeTimezone])
	}
}

func TestNew_RestoresPersistedState(t *testing.T) {
	blob := memory.New().Blob("cost_log")
	ctx := context.Background()

	first := New(ctx, blob, zap.NewNop())
	first.LogFreeCall(ctx, CounterFreeGeocoding)

	second := New(ctx, blob, zap.NewNop())
	r := second.GetReport(ctx)
	if r.FreeAPICalls[CounterFreeGeocoding] != 1 {
		t.Errorf("expected restored counter 1, got %d", r.FreeAPICalls[CounterFreeGeocoding])
	}
	if r.TotalSavings != 0.01 {
		t.Errorf("expected restored savings 0.005 rounded to 0.01, got %g", r.TotalSavings)
	}
}

func TestNew_BackfillsMissingCounters(t *testing.T) {
	blob := memory.New().Blob("cost_log")
	ctx := context.Background()

	// An older deployment only tracked geocoding.
	old := state{
		TotalSavings:   1.5,
		MonthlySavings: 0.5,
		APICalls:       map[string]int64{CounterFreeGeocoding: 300},
	}
	data, err := json.Marshal(old)
	if err != nil {
		t.Fatalf("marshal old state: %v", err)
	}
	if err := blob.Save(ctx, data); err != nil {
		t.Fatalf("seed old state: %v", err)
	}

	r := New(ctx, blob, zap.NewNop()).GetReport(ctx)
	if r.FreeAPICalls[CounterFreeGeocoding] != 300 {
		t.Errorf("existing counter must be preserved, got %d", r.FreeAPICalls[CounterFreeGeocoding])
	}
	if len(r.FreeAPICalls) != 5 {
		t.Errorf("missing counters must be backfilled, got %d", len(r.FreeAPICalls))
	}
	if r.TotalSavings != 1.5 {
		t.Errorf("savings must be preserved, got %g", r.TotalSavings)
	}
}

func TestNew_CorruptStateStartsEmpty(t *testing.T) {
	blob := memory.New().Blob("cost_log")
	ctx := context.Background()
	if err := blob.Save(ctx, []byte("{broken")); err != nil {
		t.Fatalf("seed corrupt state: %v", err)
	}

	r := New(ctx, blob, zap.NewNop()).GetReport(ctx)
	if r.TotalSavings != 0 || len(r.FreeAPICalls) != 5 {
		t.Errorf("corrupt state must reset to zero counters: %+v", r)
	}
}
