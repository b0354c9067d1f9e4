// Package check implements the check command.
package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/cmd/cmdutil"
	"github.com/agentstation/promise/internal/cmd/output"
	"github.com/agentstation/promise/internal/cmd/progress"
	"github.com/agentstation/promise/internal/cmd/table"
	"github.com/agentstation/promise/pkg/run"
)

// NewCommand creates the check command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		flags    *cmdutil.SelectionFlags
		noExport bool
	)

	cmd := &cobra.Command{
		Use:     "check [pallet...]",
		GroupID: "core",
		Short:   "Reconcile pallets against the Open Library catalog",
		Long: `Check looks up every ISBN of the selected pallets in the Open Library
catalog.

A pallet seen for the first time is created from its Internet Archive
listing; vendor codes are dropped and ISBN-10s are converted to ISBN-13.
Items missing on their first lookup are remembered as original misses and
exported once to <data-dir>/<pallet>_misses.tsv. Later checks update hits and
misses but never change which items were originally missing.

Pallets are named by identifier or archive URL. Without arguments the most
recent --count pallets of the promise-items collection are checked.`,
		Example: `  promise check                                   # Check the latest pallet
  promise check -n 5                              # Check the five latest pallets
  promise check super_pallet_2020-09-21           # Check one pallet
  promise check https://archive.org/details/x     # Check by archive URL
  promise check --dry-run -o json                 # Preview without saving`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(flags.Options(args), run.WithExport(!noExport))
			return cmdutil.WithLock(app.DataDir(), app.Logger(), func() error {
				return execute(cmd, app, opts)
			})
		},
	}

	flags = cmdutil.AddSelectionFlags(cmd)
	cmd.Flags().BoolVar(&noExport, "no-export", false, "Do not write the original-miss export")

	return cmd
}

func execute(cmd *cobra.Command, app appcontext.Interface, opts []run.Option) error {
	ctx := cmd.Context()

	client, err := app.Client()
	if err != nil {
		return err
	}

	tracker := progress.NewTracker(cmd.ErrOrStderr(), progress.Enabled(app.Quiet()))
	defer tracker.Close()
	client.OnBatchChecked(func(pallet string, done, total int) {
		tracker.Step(pallet, "checking", done, total)
	})

	result, runErr := client.Check(ctx, opts...)
	if result != nil {
		tracker.Close()
		format := output.DetectFormat(app.OutputFormat())
		if err := output.Print(cmd.OutOrStdout(), format, output.NewResultView(result), table.ResultToTableData(result)); err != nil {
			return err
		}
		if !app.Quiet() && format == output.FormatTable {
			fmt.Fprintln(cmd.ErrOrStderr(), result.Summary())
		}
	}
	return runErr
}
