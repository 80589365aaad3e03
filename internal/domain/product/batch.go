package product

import "sort"

// BatchResult reports how one batch landed in the catalog.
type BatchResult struct {
	Inserted int64
	Updated  int64
	Skipped  int64
}

// DedupeLastWins collapses records sharing an identity, keeping the last
// occurrence. The result is ordered by identity so concurrent batches lock
// catalog rows in the same order.
func DedupeLastWins(records []Record) []Record {
	latest := make(map[string]int, len(records))
	for i, record := range records {
		latest[record.Identity] = i
	}

	out := make([]Record, 0, len(latest))
	for i, record := range records {
		if latest[record.Identity] == i {
			out = append(out, record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity < out[j].Identity
	})
	return out
}
