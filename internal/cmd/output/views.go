package output

import (
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/run"
)

// ResultView is the structured (json/yaml) form of a run result.
type ResultView struct {
	DryRun  bool         `json:"dry_run" yaml:"dry_run"`
	Summary string       `json:"summary" yaml:"summary"`
	Pallets []PalletView `json:"pallets" yaml:"pallets"`
}

// PalletView is the structured form of one pallet of a run.
type PalletView struct {
	Pallet       string            `json:"pallet" yaml:"pallet"`
	Status       string            `json:"status" yaml:"status"`
	Created      bool              `json:"created,omitempty" yaml:"created,omitempty"`
	Saved        bool              `json:"saved" yaml:"saved"`
	Export       string            `json:"export,omitempty" yaml:"export,omitempty"`
	Note         string            `json:"note,omitempty" yaml:"note,omitempty"`
	Error        string            `json:"error,omitempty" yaml:"error,omitempty"`
	Summary      *pallets.Summary  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Recovered    []string          `json:"recovered,omitempty" yaml:"recovered,omitempty"`
	Registration *RegistrationView `json:"registration,omitempty" yaml:"registration,omitempty"`
}

// RegistrationView is the structured form of a registration report.
type RegistrationView struct {
	Attempted []string `json:"attempted" yaml:"attempted"`
	Skipped   []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Accepted  int      `json:"accepted" yaml:"accepted"`
	NotFound  int      `json:"not_found" yaml:"not_found"`
	Failed    int      `json:"failed" yaml:"failed"`
}

// NewResultView converts a run result for structured output.
func NewResultView(result *run.Result) ResultView {
	view := ResultView{DryRun: result.DryRun, Summary: result.Summary()}
	for _, pr := range result.Pallets {
		pv := PalletView{
			Pallet:  pr.Pallet,
			Status:  string(pr.Status),
			Created: pr.Created,
			Saved:   pr.Saved,
			Export:  pr.Export,
			Note:    pr.Note,
			Summary: pr.Summary,
		}
		if pr.Err != nil {
			pv.Error = pr.Err.Error()
		}
		if pr.Reconcile != nil {
			pv.Recovered = pr.Reconcile.Recovered
		}
		if r := pr.Registration; r != nil {
			pv.Registration = &RegistrationView{
				Attempted: r.Attempted,
				Skipped:   r.Skipped,
				Accepted:  r.Accepted,
				NotFound:  r.NotFound,
				Failed:    r.Failed,
			}
		}
		view.Pallets = append(view.Pallets, pv)
	}
	return view
}
