package usage

// Bucket aggregates all calls for one provider on one calendar day.
// Totals are maintained on append, so TotalCalls always equals the number
// of records and TotalCost/TotalUnits equal the fold over them.
type Bucket struct {
	calls   int64
	units   int64
	cost    float64
	records []Record
}

// ReconstructBucket hydrates a bucket from persisted state. Persisted totals
// are trusted as-is; they were maintained by Append before the save.
func ReconstructBucket(calls, units int64, cost float64, records []Record) Bucket {
	return Bucket{
		calls:   calls,
		units:   units,
		cost:    cost,
		records: records,
	}
}

// Append adds a record and updates the totals.
func (b *Bucket) Append(r Record) {
	b.calls++
	b.units += r.Units
	b.cost += r.Cost
	b.records = append(b.records, r)
}

// TotalCalls returns the number of calls recorded in the bucket.
func (b Bucket) TotalCalls() int64 { return b.calls }

// TotalUnits returns the summed unit count (tokens for LLM providers).
func (b Bucket) TotalUnits() int64 { return b.units }

// TotalCost returns the summed cost in account currency.
func (b Bucket) TotalCost() float64 { return b.cost }

// Records returns a copy of the call records in insertion order.
func (b Bucket) Records() []Record {
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// IsEmpty reports whether the bucket has no recorded calls.
func (b Bucket) IsEmpty() bool { return b.calls == 0 }
