package usage

import "time"

// ProviderReport is one provider's slice of a trailing-window report.
// Days with no recorded calls are absent from Days, not zero-filled.
type ProviderReport struct {
	Days    map[string]Bucket
	Summary ReportSummary
}

// ReportSummary totals a report window and averages it over the window
// length (not over the number of active days).
type ReportSummary struct {
	TotalCalls    int64
	TotalCost     float64
	AvgDailyCalls float64
	AvgDailyCost  float64
}

// Report maps provider -> trailing-window report.
type Report map[string]ProviderReport

// BuildReport collects per-day buckets for the trailing `days` window ending
// at now (inclusive of today). When provider is empty, every provider with
// recorded usage is included; an unknown provider yields an empty report.
func (l *Ledger) BuildReport(provider string, days int, now time.Time) Report {
	if days < 1 {
		days = 1
	}
	// Strictly after the cutoff day: today plus the previous days-1 days.
	cutoff := DayKey(now.AddDate(0, 0, -days))

	providers := []string{provider}
	if provider == "" {
		providers = l.Providers()
	}

	report := make(Report, len(providers))
	for _, p := range providers {
		buckets, ok := l.buckets[p]
		if !ok {
			continue
		}

		pr := ProviderReport{Days: make(map[string]Bucket)}
		for day, b := range buckets {
			if day <= cutoff {
				continue
			}
			pr.Days[day] = *b
			pr.Summary.TotalCalls += b.TotalCalls()
			pr.Summary.TotalCost += b.TotalCost()
		}
		pr.Summary.AvgDailyCalls = float64(pr.Summary.TotalCalls) / float64(days)
		pr.Summary.AvgDailyCost = pr.Summary.TotalCost / float64(days)

		report[p] = pr
	}
	return report
}
