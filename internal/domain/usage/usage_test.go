package usage

import (
	"testing"
	"time"
)

var noon = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDayKey_UTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, 6, 15, 23, 30, 0, 0, est)

	if got := DayKey(at); got != "2025-06-16" {
		t.Errorf("expected day key 2025-06-16, got %s", got)
	}
	if got := MonthKey(at); got != "2025-06" {
		t.Errorf("expected month key 2025-06, got %s", got)
	}
}

func TestBucket_TotalsMatchRecords(t *testing.T) {
	l := NewLedger()

	costs := []float64{0.5, 1.25, 0.0, 2.75}
	units := []int64{100, 0, 50, 7}
	for i := range costs {
		l.Record("GEMINI_API", "gemini-1.5-flash", units[i], costs[i], noon)
	}

	b := l.Daily("GEMINI_API", "2025-06-15")
	if b.TotalCalls() != 4 {
		t.Errorf("expected 4 calls, got %d", b.TotalCalls())
	}
	if len(b.Records()) != 4 {
		t.Errorf("expected 4 records, got %d", len(b.Records()))
	}
	if b.TotalCost() != 4.5 {
		t.Errorf("expected total cost 4.5, got %g", b.TotalCost())
	}
	if b.TotalUnits() != 157 {
		t.Errorf("expected total units 157, got %d", b.TotalUnits())
	}
}

func TestRecord_ReturnsUpdatedSnapshot(t *testing.T) {
	l := NewLedger()

	snap := l.Record("OPENWEATHER_API", "weather_data", 0, 0.0005, noon)
	if snap.Day != "2025-06-15" {
		t.Errorf("expected day 2025-06-15, got %s", snap.Day)
	}
	if snap.Calls != 1 {
		t.Errorf("expected 1 call, got %d", snap.Calls)
	}

	snap = l.Record("OPENWEATHER_API", "weather_data", 0, 0.0005, noon)
	if snap.Calls != 2 {
		t.Errorf("expected 2 calls, got %d", snap.Calls)
	}
	if snap.Cost != 0.001 {
		t.Errorf("expected cost 0.001, got %g", snap.Cost)
	}
}

func TestDaily_UnknownIsEmpty(t *testing.T) {
	l := NewLedger()

	b := l.Daily("NOPE", "2025-06-15")
	if !b.IsEmpty() {
		t.Error("expected empty bucket for unknown provider")
	}
	if b.TotalCalls() != 0 || b.TotalCost() != 0 || b.TotalUnits() != 0 {
		t.Error("expected all-zero bucket for unknown provider")
	}
}

func TestMonthly_SumsDailyBuckets(t *testing.T) {
	l := NewLedger()

	// Three days inside June, one in May, one in July.
	for _, day := range []int{1, 15, 30} {
		l.Record("GEMINI_API", "m", 10, 1.0, time.Date(2025, 6, day, 8, 0, 0, 0, time.UTC))
	}
	l.Record("GEMINI_API", "m", 10, 1.0, time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC))
	l.Record("GEMINI_API", "m", 10, 1.0, time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC))

	snap := l.Monthly("GEMINI_API", "2025-06")
	if snap.Calls != 3 {
		t.Errorf("expected 3 calls in June, got %d", snap.Calls)
	}
	if snap.Cost != 3.0 {
		t.Errorf("expected cost 3.0 in June, got %g", snap.Cost)
	}
}

func TestMonthly_PartitionInvariant(t *testing.T) {
	// However calls are spread across days, the month total is the sum of
	// the daily buckets with the month prefix.
	l := NewLedger()
	days := []int{3, 3, 3, 12, 12, 28}
	for _, d := range days {
		l.Record("P", "e", 1, 0.25, time.Date(2025, 6, d, 10, 0, 0, 0, time.UTC))
	}

	var calls int64
	var cost float64
	for _, day := range l.Days("P") {
		b := l.Daily("P", day)
		calls += b.TotalCalls()
		cost += b.TotalCost()
	}

	snap := l.Monthly("P", "2025-06")
	if snap.Calls != calls {
		t.Errorf("monthly calls %d != sum of daily %d", snap.Calls, calls)
	}
	if snap.Cost != cost {
		t.Errorf("monthly cost %g != sum of daily %g", snap.Cost, cost)
	}
}

func TestBuildReport_WindowAndSummary(t *testing.T) {
	l := NewLedger()
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	l.Record("P", "e", 0, 1.0, now)                     // today
	l.Record("P", "e", 0, 2.0, now.AddDate(0, 0, -3))   // inside window
	l.Record("P", "e", 0, 100.0, now.AddDate(0, 0, -7)) // outside 7-day window

	report := l.BuildReport("P", 7, now)
	pr, ok := report["P"]
	if !ok {
		t.Fatal("expected provider P in report")
	}

	if len(pr.Days) != 2 {
		t.Fatalf("expected 2 days in window, got %d", len(pr.Days))
	}
	if _, ok := pr.Days["2025-06-08"]; ok {
		t.Error("day outside window should be absent")
	}
	if pr.Summary.TotalCalls != 2 {
		t.Errorf("expected 2 total calls, got %d", pr.Summary.TotalCalls)
	}
	if pr.Summary.TotalCost != 3.0 {
		t.Errorf("expected total cost 3.0, got %g", pr.Summary.TotalCost)
	}
	if pr.Summary.AvgDailyCost != 3.0/7 {
		t.Errorf("expected avg daily cost %g, got %g", 3.0/7, pr.Summary.AvgDailyCost)
	}
}

func TestBuildReport_AllProviders(t *testing.T) {
	l := NewLedger()
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	l.Record("A", "e", 0, 1.0, now)
	l.Record("B", "e", 0, 1.0, now)

	report := l.BuildReport("", 7, now)
	if len(report) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(report))
	}
}

func TestBuildReport_UnknownProviderIsEmpty(t *testing.T) {
	l := NewLedger()
	report := l.BuildReport("NOPE", 7, noon)
	if len(report) != 0 {
		t.Errorf("expected empty report, got %d entries", len(report))
	}
}

func TestReconstructBucket_RoundTrip(t *testing.T) {
	records := []Record{
		{Timestamp: noon, Endpoint: "a", Units: 5, Cost: 0.1},
		{Timestamp: noon.Add(time.Minute), Endpoint: "b", Units: 10, Cost: 0.2},
	}
	b := ReconstructBucket(2, 15, 0.3, records)

	if b.TotalCalls() != 2 || b.TotalUnits() != 15 {
		t.Errorf("unexpected totals: calls=%d units=%d", b.TotalCalls(), b.TotalUnits())
	}
	got := b.Records()
	if len(got) != 2 || got[1].Endpoint != "b" {
		t.Errorf("records not preserved: %+v", got)
	}
}

func TestBucket_RecordsReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Record("P", "e", 1, 1.0, noon)

	b := l.Daily("P", "2025-06-15")
	records := b.Records()
	records[0].Cost = 999

	if l.Daily("P", "2025-06-15").Records()[0].Cost != 1.0 {
		t.Error("mutating the returned slice must not affect the bucket")
	}
}
