// Package show implements the show command.
package show

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/cmd/output"
	"github.com/agentstation/promise/internal/cmd/table"
	"github.com/agentstation/promise/pkg/pallets"
)

// NewCommand creates the show command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		missesOnly   bool
		originalOnly bool
	)

	cmd := &cobra.Command{
		Use:     "show <pallet>",
		GroupID: "inspect",
		Short:   "Show a stored pallet and its items",
		Args:    cobra.ExactArgs(1),
		Example: `  promise show super_pallet_2020-09-21
  promise show super_pallet_2020-09-21 --misses
  promise show super_pallet_2020-09-21 -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			p, err := client.Pallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			items := p.Items()
			switch {
			case originalOnly:
				if items, err = p.OriginalMisses(); err != nil {
					return err
				}
			case missesOnly:
				if items, err = p.Misses(); err != nil {
					return err
				}
			}

			format := output.DetectFormat(app.OutputFormat())
			if format != output.FormatTable {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), view(p, items))
			}

			w := cmd.OutOrStdout()
			if err := output.NewFormatter(output.FormatTable).Format(w, table.SummariesToTableData([]*pallets.Pallet{p})); err != nil {
				return err
			}
			fmt.Fprintln(w)
			return output.NewFormatter(output.FormatTable).Format(w, table.ItemsToTableData(items))
		},
	}

	cmd.Flags().BoolVar(&missesOnly, "misses", false, "Only show items absent at the last check")
	cmd.Flags().BoolVar(&originalOnly, "original-misses", false, "Only show items absent at their first check")
	cmd.MarkFlagsMutuallyExclusive("misses", "original-misses")

	return cmd
}

// view is the structured form of a pallet; the summary is omitted before the
// first check.
func view(p *pallets.Pallet, items []*pallets.Item) any {
	type palletView struct {
		Name    string           `json:"name" yaml:"name"`
		URL     string           `json:"url" yaml:"url"`
		Queried bool             `json:"queried" yaml:"queried"`
		Summary *pallets.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
		Items   []*pallets.Item  `json:"items" yaml:"items"`
	}
	v := palletView{Name: p.Name(), URL: p.URL(), Queried: p.Queried(), Items: items}
	if s, err := p.Summary(); err == nil {
		v.Summary = &s
	}
	return v
}
