// Package exportmisses implements the export-misses command.
package exportmisses

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/cmd/cmdutil"
	"github.com/agentstation/promise/internal/export"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
)

// NewCommand creates the export-misses command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		all  bool
		path string
	)

	cmd := &cobra.Command{
		Use:     "export-misses [pallet]",
		GroupID: "inspect",
		Short:   "Export original misses as TSV",
		Long: `Export-misses writes one row [timestamp, pallet, isbn] per original miss.

With a pallet name the export goes to <data-dir>/<pallet>_misses.tsv, the
same file check writes. With --all the original misses of every stored
pallet go to a single file. Existing files are never overwritten.`,
		Example: `  promise export-misses super_pallet_2020-09-21
  promise export-misses --all
  promise export-misses --all --path misses.tsv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.NewValidationError("pallet", args, "name one pallet or use --all")
			}
			return cmdutil.WithLock(app.DataDir(), app.Logger(), func() error {
				client, err := app.Client()
				if err != nil {
					return err
				}
				now := time.Now().UTC()

				if all {
					if path == "" {
						path = filepath.Join(client.DataDir(), "all_"+now.Format("20060102-150405")+constants.MissesFileSuffix)
					}
					n, err := client.ExportAll(cmd.Context(), path)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d original misses\n", path, n)
					return nil
				}

				p, err := client.Pallet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				written, err := export.WriteOriginalMisses(client.DataDir(), p, now)
				if err != nil {
					return err
				}
				count, _ := p.OriginalMissCount()
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d original misses\n", written, count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Export every stored pallet into one file")
	cmd.Flags().StringVar(&path, "path", "", "Destination for --all (default <data-dir>/all_<timestamp>_misses.tsv)")

	return cmd
}
