package metrics

import "github.com/prometheus/client_golang/prometheus"

// API usage Prometheus metrics.
var (
	APICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apimeter",
			Name:      "api_calls_total",
			Help:      "Total number of recorded upstream API calls",
		},
		[]string{"provider", "endpoint"},
	)

	APICostDollarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apimeter",
			Name:      "api_cost_dollars_total",
			Help:      "Total recorded upstream API cost in dollars",
		},
		[]string{"provider"},
	)

	APIUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apimeter",
			Name:      "api_units_total",
			Help:      "Total recorded upstream API units (tokens for LLM providers)",
		},
		[]string{"provider"},
	)

	BudgetBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apimeter",
			Name:      "budget_blocked_total",
			Help:      "Total budget evaluations that returned blocked",
		},
		[]string{"provider"},
	)
)

// RegisterAPIMetrics registers the API usage metrics. Called explicitly from
// the composition root (no init()) so tests can use the vectors unregistered.
func RegisterAPIMetrics() {
	prometheus.MustRegister(APICallsTotal)
	prometheus.MustRegister(APICostDollarsTotal)
	prometheus.MustRegister(APIUnitsTotal)
	prometheus.MustRegister(BudgetBlockedTotal)
}
