package commands

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/report"
	"github.com/gerunddev/cardbridge/internal/trello"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		label  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report <board.json>",
		Short: "List open cards with a label from a board export as CSV",
		Long: `Read a Trello board JSON export and list its open cards carrying a label
(bug by default) with their severity and column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := trello.LoadBoard(args[0])
			if err != nil {
				return err
			}

			rows := report.Select(board, label)
			a.log.Info("report built", "board", board.Name, "label", label, "cards", len(rows))

			var buf bytes.Buffer
			if err := report.Write(&buf, rows); err != nil {
				return err
			}
			return writeOutput(cmd, output, buf.String())
		},
	}

	cmd.Flags().StringVar(&label, "label", report.DefaultLabel, "Label selecting the cards")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of standard output")
	return cmd
}
