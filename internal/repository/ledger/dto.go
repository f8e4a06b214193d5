package ledger

import (
	"time"

	"github.com/woo-consulting/apimeter/internal/domain/usage"
)

// Persisted layout (api_usage.json):
//
//	{ provider: { "YYYY-MM-DD": { total_calls, total_tokens, total_cost,
//	  calls: [ { timestamp, endpoint, tokens_used, cost }, ... ] } } }

type callRow struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
	Tokens    int64     `json:"tokens_used"`
	Cost      float64   `json:"cost"`
}

type bucketRow struct {
	TotalCalls  int64     `json:"total_calls"`
	TotalTokens int64     `json:"total_tokens"`
	TotalCost   float64   `json:"total_cost"`
	Calls       []callRow `json:"calls"`
}

func bucketToRow(b usage.Bucket) bucketRow {
	records := b.Records()
	calls := make([]callRow, len(records))
	for i, r := range records {
		calls[i] = callRow{
			Timestamp: r.Timestamp,
			Endpoint:  r.Endpoint,
			Tokens:    r.Units,
			Cost:      r.Cost,
		}
	}
	return bucketRow{
		TotalCalls:  b.TotalCalls(),
		TotalTokens: b.TotalUnits(),
		TotalCost:   b.TotalCost(),
		Calls:       calls,
	}
}

func bucketFromRow(row bucketRow) usage.Bucket {
	records := make([]usage.Record, len(row.Calls))
	for i, c := range row.Calls {
		records[i] = usage.Record{
			Timestamp: c.Timestamp,
			Endpoint:  c.Endpoint,
			Units:     c.Tokens,
			Cost:      c.Cost,
		}
	}
	return usage.ReconstructBucket(row.TotalCalls, row.TotalTokens, row.TotalCost, records)
}
