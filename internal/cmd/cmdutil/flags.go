// Package cmdutil provides flags and helpers shared by promise commands.
package cmdutil

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/run"
)

// SelectionFlags choose which pallets a command covers.
type SelectionFlags struct {
	Count    int
	DryRun   bool
	FailFast bool
	Timeout  time.Duration
}

// AddSelectionFlags adds pallet selection and orchestration flags to cmd.
func AddSelectionFlags(cmd *cobra.Command) *SelectionFlags {
	flags := &SelectionFlags{}

	cmd.Flags().IntVarP(&flags.Count, "count", "n", constants.DefaultListingCount,
		"Number of most recent pallets to process when none is named")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Do not save snapshots, write exports or send registrations")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false,
		"Stop at the first pallet that fails")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", constants.CommandTimeout,
		"Timeout for the whole run (0 disables)")

	return flags
}

// Options returns the run options for the flags and positional targets.
func (f *SelectionFlags) Options(targets []string) []run.Option {
	opts := []run.Option{
		run.WithCount(f.Count),
		run.WithDryRun(f.DryRun),
		run.WithFailFast(f.FailFast),
		run.WithTimeout(f.Timeout),
	}
	if len(targets) > 0 {
		opts = append(opts, run.WithTargets(targets...))
	}
	return opts
}

// RegistrationFlags control registration requests.
type RegistrationFlags struct {
	Delay         time.Duration
	SkipAttempted bool
}

// AddRegistrationFlags adds registration flags to cmd.
func AddRegistrationFlags(cmd *cobra.Command) *RegistrationFlags {
	flags := &RegistrationFlags{}

	cmd.Flags().DurationVar(&flags.Delay, "delay", constants.DefaultRegistrationDelay,
		"Wait between registration requests")
	cmd.Flags().BoolVar(&flags.SkipAttempted, "skip-attempted", true,
		"Skip items a previous run already tried to register")

	return flags
}

// Options returns run options for the flags the user actually set, so
// configured defaults are only overridden explicitly.
func (f *RegistrationFlags) Options(cmd *cobra.Command) []run.Option {
	var opts []run.Option
	if cmd.Flags().Changed("delay") {
		opts = append(opts, run.WithDelay(f.Delay))
	}
	if cmd.Flags().Changed("skip-attempted") {
		opts = append(opts, run.WithSkipAttempted(f.SkipAttempted))
	}
	return opts
}
