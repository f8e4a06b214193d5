package usage

import (
	"sort"
	"strings"
	"time"
)

// Ledger is the process-wide usage state: provider -> day key -> bucket.
// It is a plain data structure with no locking; the owning service
// serializes access (see usecase/governor).
type Ledger struct {
	buckets map[string]map[string]*Bucket
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{buckets: make(map[string]map[string]*Bucket)}
}

// Restore places a persisted bucket into the ledger. Used only during
// hydration from storage.
func (l *Ledger) Restore(provider, day string, b Bucket) {
	days, ok := l.buckets[provider]
	if !ok {
		days = make(map[string]*Bucket)
		l.buckets[provider] = days
	}
	days[day] = &b
}

// Record appends a call to the bucket for (provider, day-of-at) and returns
// the updated daily snapshot. Recording is unconditional; budget
// enforcement happens separately.
func (l *Ledger) Record(provider, endpoint string, units int64, cost float64, at time.Time) DailySnapshot {
	day := DayKey(at)

	days, ok := l.buckets[provider]
	if !ok {
		days = make(map[string]*Bucket)
		l.buckets[provider] = days
	}
	b, ok := days[day]
	if !ok {
		b = &Bucket{}
		days[day] = b
	}

	b.Append(Record{
		Timestamp: at.UTC(),
		Endpoint:  endpoint,
		Units:     units,
		Cost:      cost,
	})

	return DailySnapshot{Day: day, Calls: b.TotalCalls(), Cost: b.TotalCost()}
}

// Daily returns the bucket for a provider and day key. An all-zero bucket is
// returned when nothing was recorded.
func (l *Ledger) Daily(provider, day string) Bucket {
	if b, ok := l.buckets[provider][day]; ok {
		return *b
	}
	return Bucket{}
}

// Monthly sums all of a provider's daily buckets whose day key falls inside
// the given month key (YYYY-MM). Linear in the provider's day count.
func (l *Ledger) Monthly(provider, month string) MonthlySnapshot {
	var snap MonthlySnapshot
	for day, b := range l.buckets[provider] {
		if strings.HasPrefix(day, month) {
			snap.Calls += b.TotalCalls()
			snap.Cost += b.TotalCost()
		}
	}
	return snap
}

// Providers returns the sorted list of providers with recorded usage.
func (l *Ledger) Providers() []string {
	out := make([]string, 0, len(l.buckets))
	for p := range l.buckets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Days returns the sorted day keys recorded for a provider.
func (l *Ledger) Days(provider string) []string {
	days := l.buckets[provider]
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
