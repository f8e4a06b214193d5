// Package usage holds the in-memory usage ledger: per-provider, per-day
// buckets of recorded API calls. All day boundaries are UTC.
package usage

import "time"

// Key formats for bucket lookups. Days sort lexicographically, so a month
// aggregate is a prefix scan over day keys.
const (
	DayKeyFormat   = "2006-01-02"
	MonthKeyFormat = "2006-01"
)

// DayKey returns the bucket key for the calendar day containing t (UTC).
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

// MonthKey returns the aggregate key for the calendar month containing t (UTC).
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyFormat)
}

// Record is one logged API call. Immutable once created.
type Record struct {
	Timestamp time.Time
	Endpoint  string
	Units     int64
	Cost      float64
}

// DailySnapshot is the bucket state returned after a record.
type DailySnapshot struct {
	Day   string
	Calls int64
	Cost  float64
}

// MonthlySnapshot aggregates one provider's calendar month.
type MonthlySnapshot struct {
	Calls int64
	Cost  float64
}
