package reconcile

import "time"

// Result describes one completed reconciliation pass.
type Result struct {
	// Pallet is the name of the reconciled pallet
	Pallet string

	// Batches is the number of catalog queries issued
	Batches int

	// Hits and Misses are the ISBNs present and absent at this pass
	Hits   []string
	Misses []string

	// OriginalMisses are the ISBNs that were absent when first checked
	OriginalMisses []string

	// Recovered are the ISBNs that were absent before this pass and present now
	Recovered []string

	// Duration of the pass
	Duration time.Duration
}

// Total returns the number of items observed.
func (r *Result) Total() int {
	return len(r.Hits) + len(r.Misses)
}
