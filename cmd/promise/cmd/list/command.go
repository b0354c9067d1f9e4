// Package list implements the list command.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/cmd/output"
	"github.com/agentstation/promise/internal/cmd/table"
	"github.com/agentstation/promise/pkg/pallets"
)

// NewCommand creates the list command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: "inspect",
		Short:   "List stored pallets with their counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			all, err := client.Pallets(cmd.Context())
			if err != nil {
				return err
			}

			summaries := make([]pallets.Summary, 0, len(all))
			for _, p := range all {
				s, err := p.Summary()
				if err != nil {
					s = pallets.Summary{Name: p.Name(), URL: p.URL(), Total: p.Len(), Created: p.Created(), Updated: p.Updated()}
				}
				summaries = append(summaries, s)
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Print(cmd.OutOrStdout(), format, summaries, table.SummariesToTableData(all))
		},
	}
}
