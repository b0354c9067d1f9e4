// Package addmissing implements the add-missing command.
package addmissing

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/cmd/cmdutil"
	"github.com/agentstation/promise/internal/cmd/output"
	"github.com/agentstation/promise/internal/cmd/progress"
	"github.com/agentstation/promise/internal/cmd/table"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/register"
	"github.com/agentstation/promise/pkg/run"
)

// NewCommand creates the add-missing command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		flags *cmdutil.SelectionFlags
		reg   *cmdutil.RegistrationFlags
	)

	cmd := &cobra.Command{
		Use:     "add-missing [pallet...]",
		GroupID: "core",
		Short:   "Ask Open Library to import the ISBNs a pallet is missing",
		Long: `Add-missing requests an import from Open Library for every item that was
absent at the last check of the selected pallets.

Requests are best-effort: every request marks its item as attempted and the
outcome is only reported. Whether an import worked shows up at the next
check. Pallets without a snapshot are skipped; run check first.

Interrupting the command stops before the next request and keeps the
attempts made so far.`,
		Example: `  promise add-missing                              # Register misses of the latest pallet
  promise add-missing super_pallet_2020-09-21      # Register misses of one pallet
  promise add-missing --skip-attempted=false       # Retry items already attempted
  promise add-missing --delay 2s                   # Slow down requests`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(app.RunOptions(), flags.Options(args)...)
			opts = append(opts, reg.Options(cmd)...)
			return cmdutil.WithLock(app.DataDir(), app.Logger(), func() error {
				return execute(cmd, app, opts)
			})
		},
	}

	flags = cmdutil.AddSelectionFlags(cmd)
	reg = cmdutil.AddRegistrationFlags(cmd)

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
	counts := map[string]int{}
	client.OnItemRegistered(func(item pallets.Item, _ register.Outcome, _ error) {
		counts[item.Pallet]++
		tracker.Step(item.Pallet, "registering", counts[item.Pallet], -1)
	})

	result, runErr := client.AddMissing(ctx, opts...)
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
