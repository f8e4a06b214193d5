package chi

import (
	"time"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/domain/usage"
	"github.com/woo-consulting/apimeter/internal/usecase/governor"
	"github.com/woo-consulting/apimeter/internal/usecase/savings"
)

// Wire shapes. Field names match the persisted layouts so the dashboard
// frontend reads the same keys it always has.

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type limitsJSON struct {
	DailyLimit       *int64   `json:"daily_limit"`
	MonthlyLimit     *int64   `json:"monthly_limit"`
	DailyCostLimit   *float64 `json:"daily_cost_limit"`
	MonthlyCostLimit *float64 `json:"monthly_cost_limit"`
	CostPerRequest   *float64 `json:"cost_per_request"`
}

type snapshotJSON struct {
	DailyCalls   int64   `json:"daily_calls"`
	DailyCost    float64 `json:"daily_cost"`
	MonthlyCalls int64   `json:"monthly_calls"`
	MonthlyCost  float64 `json:"monthly_cost"`
}

type decisionJSON struct {
	Status   string       `json:"status"`
	Warnings []string     `json:"warnings"`
	Usage    snapshotJSON `json:"usage"`
}

type periodTotalsJSON struct {
	Calls int64   `json:"calls"`
	Cost  float64 `json:"cost"`
}

type providerStatusJSON struct {
	Limits      limitsJSON       `json:"limits"`
	Today       periodTotalsJSON `json:"today"`
	Month       periodTotalsJSON `json:"month"`
	BudgetCheck decisionJSON     `json:"budget_check"`
}

type callJSON struct {
	Timestamp  time.Time `json:"timestamp"`
	Endpoint   string    `json:"endpoint"`
	TokensUsed int64     `json:"tokens_used"`
	Cost       float64   `json:"cost"`
}

type bucketJSON struct {
	TotalCalls  int64      `json:"total_calls"`
	TotalTokens int64      `json:"total_tokens"`
	TotalCost   float64    `json:"total_cost"`
	Calls       []callJSON `json:"calls"`
}

type summaryJSON struct {
	TotalCalls    int64   `json:"total_calls"`
	TotalCost     float64 `json:"total_cost"`
	AvgDailyCalls float64 `json:"avg_daily_calls"`
	AvgDailyCost  float64 `json:"avg_daily_cost"`
}

type providerReportJSON struct {
	Days    map[string]bucketJSON `json:"days"`
	Summary summaryJSON           `json:"summary"`
}

type dashboardJSON struct {
	CurrentStatus map[string]providerStatusJSON `json:"current_status"`
	WeeklyReport  map[string]providerReportJSON `json:"weekly_report"`
	MonthlyReport map[string]providerReportJSON `json:"monthly_report"`
}

type savingsJSON struct {
	FreeAPICalls         map[string]int64 `json:"free_api_calls"`
	TotalSavings         float64          `json:"total_savings"`
	MonthlySavings       float64          `json:"monthly_savings"`
	GoogleEquivalentCost float64          `json:"google_equivalent_cost"`
	LastUpdated          time.Time        `json:"last_updated"`
}

func limitsToJSON(l budget.Limits) limitsJSON {
	return limitsJSON{
		DailyLimit:       l.DailyCalls,
		MonthlyLimit:     l.MonthlyCalls,
		DailyCostLimit:   l.DailyCost,
		MonthlyCostLimit: l.MonthlyCost,
		CostPerRequest:   l.CostPerCall,
	}
}

func limitsFromJSON(j limitsJSON) budget.Limits {
	return budget.Limits{
		DailyCalls:   j.DailyLimit,
		MonthlyCalls: j.MonthlyLimit,
		DailyCost:    j.DailyCostLimit,
		MonthlyCost:  j.MonthlyCostLimit,
		CostPerCall:  j.CostPerRequest,
	}
}

func decisionToJSON(d budget.Decision) decisionJSON {
	return decisionJSON{
		Status:   string(d.Status),
		Warnings: d.Warnings,
		Usage: snapshotJSON{
			DailyCalls:   d.Usage.DailyCalls,
			DailyCost:    d.Usage.DailyCost,
			MonthlyCalls: d.Usage.MonthlyCalls,
			MonthlyCost:  d.Usage.MonthlyCost,
		},
	}
}

func statusToJSON(st governor.ProviderStatus) providerStatusJSON {
	return providerStatusJSON{
		Limits:      limitsToJSON(st.Limits),
		Today:       periodTotalsJSON{Calls: st.Today.Calls, Cost: st.Today.Cost},
		Month:       periodTotalsJSON{Calls: st.Month.Calls, Cost: st.Month.Cost},
		BudgetCheck: decisionToJSON(st.Decision),
	}
}

func statusMapToJSON(m map[string]governor.ProviderStatus) map[string]providerStatusJSON {
	out := make(map[string]providerStatusJSON, len(m))
	for provider, st := range m {
		out[provider] = statusToJSON(st)
	}
	return out
}

func bucketToJSON(b usage.Bucket) bucketJSON {
	records := b.Records()
	calls := make([]callJSON, len(records))
	for i, r := range records {
		calls[i] = callJSON{
			Timestamp:  r.Timestamp,
			Endpoint:   r.Endpoint,
			TokensUsed: r.Units,
			Cost:       r.Cost,
		}
	}
	return bucketJSON{
		TotalCalls:  b.TotalCalls(),
		TotalTokens: b.TotalUnits(),
		TotalCost:   b.TotalCost(),
		Calls:       calls,
	}
}

func reportToJSON(r usage.Report) map[string]providerReportJSON {
	out := make(map[string]providerReportJSON, len(r))
	for provider, pr := range r {
		days := make(map[string]bucketJSON, len(pr.Days))
		for day, b := range pr.Days {
			days[day] = bucketToJSON(b)
		}
		out[provider] = providerReportJSON{
			Days: days,
			Summary: summaryJSON{
				TotalCalls:    pr.Summary.TotalCalls,
				TotalCost:     pr.Summary.TotalCost,
				AvgDailyCalls: pr.Summary.AvgDailyCalls,
				AvgDailyCost:  pr.Summary.AvgDailyCost,
			},
		}
	}
	return out
}

func savingsToJSON(r savings.Report) savingsJSON {
	return savingsJSON{
		FreeAPICalls:         r.FreeAPICalls,
		TotalSavings:         r.TotalSavings,
		MonthlySavings:       r.MonthlySavings,
		GoogleEquivalentCost: r.GoogleEquivalentCost,
		LastUpdated:          r.LastUpdated,
	}
}
