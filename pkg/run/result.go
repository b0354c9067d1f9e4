package run

import (
	"fmt"
	"strings"

	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/reconcile"
	"github.com/agentstation/promise/pkg/register"
)

// Status is the outcome of a run for one pallet.
type Status string

// Statuses.
const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// PalletResult describes what a run did to one pallet.
type PalletResult struct {
	Pallet  string
	Status  Status
	Created bool   // Snapshot was created from the remote listing in this run
	Saved   bool   // Snapshot was persisted
	Export  string // Path of the original-miss export written in this run
	Note    string // Human-readable reason for a skip or a notable event
	Err     error

	Summary      *pallets.Summary
	Reconcile    *reconcile.Result
	Registration *register.Report
}

// Result is the outcome of a whole run.
type Result struct {
	DryRun  bool
	Pallets []*PalletResult
}

// Failed returns the pallets that failed.
func (r *Result) Failed() []*PalletResult {
	var out []*PalletResult
	for _, p := range r.Pallets {
		if p.Status == StatusFailed {
			out = append(out, p)
		}
	}
	return out
}

// Summary returns a human-readable one-line summary.
func (r *Result) Summary() string {
	counts := map[Status]int{}
	for _, p := range r.Pallets {
		counts[p.Status]++
	}
	summary := fmt.Sprintf("%d pallets: %d done, %d skipped, %d failed",
		len(r.Pallets), counts[StatusDone], counts[StatusSkipped], counts[StatusFailed])
	if r.DryRun {
		summary += " (dry run)"
	}
	return summary
}

// Line returns a human-readable one-line summary of one pallet.
func (p *PalletResult) Line() string {
	switch {
	case p.Status == StatusFailed:
		return fmt.Sprintf("%s: failed: %v", p.Pallet, p.Err)
	case p.Status == StatusSkipped:
		return fmt.Sprintf("%s: skipped: %s", p.Pallet, p.Note)
	case p.Summary != nil:
		parts := []string{
			fmt.Sprintf("%d total", p.Summary.Total),
			fmt.Sprintf("%d hits", p.Summary.Hits),
			fmt.Sprintf("%d misses", p.Summary.Misses),
			fmt.Sprintf("%d original misses", p.Summary.OriginalMisses),
		}
		return p.Pallet + ": " + strings.Join(parts, ", ")
	}
	return p.Pallet + ": " + string(p.Status)
}
