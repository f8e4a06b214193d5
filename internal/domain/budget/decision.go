package budget

import "fmt"

// Status classifies a provider's current usage against its limits.
type Status string

const (
	// StatusOK means every configured limit is strictly below its ceiling.
	StatusOK Status = "ok"
	// StatusWarning is reserved in the taxonomy but never produced: every
	// check that appends a warning today also blocks.
	StatusWarning Status = "warning"
	// StatusBlocked means at least one configured limit is met or exceeded.
	StatusBlocked Status = "blocked"
)

// Snapshot is the usage view attached to a Decision for display.
type Snapshot struct {
	DailyCalls   int64
	DailyCost    float64
	MonthlyCalls int64
	MonthlyCost  float64
}

// Decision is the evaluator's output. Warnings are human-readable, one per
// exceeded limit.
type Decision struct {
	Status   Status
	Warnings []string
	Usage    Snapshot
}

// Blocked reports whether the decision requires the caller to reject.
func (d Decision) Blocked() bool { return d.Status == StatusBlocked }

// Evaluate checks current usage against limits. Limits may be nil (provider
// not configured), which always yields StatusOK. Checks use >=, so hitting
// a ceiling exactly blocks.
func Evaluate(limits *Limits, snap Snapshot) Decision {
	d := Decision{Status: StatusOK, Warnings: []string{}, Usage: snap}
	if limits == nil {
		return d
	}

	if limits.DailyCalls != nil && snap.DailyCalls >= *limits.DailyCalls {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("Daily call limit exceeded (%d/%d)", snap.DailyCalls, *limits.DailyCalls))
	}
	if limits.DailyCost != nil && snap.DailyCost >= *limits.DailyCost {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("Daily cost limit exceeded ($%.2f/$%.2f)", snap.DailyCost, *limits.DailyCost))
	}
	if limits.MonthlyCalls != nil && snap.MonthlyCalls >= *limits.MonthlyCalls {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("Monthly call limit exceeded (%d/%d)", snap.MonthlyCalls, *limits.MonthlyCalls))
	}
	if limits.MonthlyCost != nil && snap.MonthlyCost >= *limits.MonthlyCost {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("Monthly cost limit exceeded ($%.2f/$%.2f)", snap.MonthlyCost, *limits.MonthlyCost))
	}

	if len(d.Warnings) > 0 {
		d.Status = StatusBlocked
	}
	return d
}
