package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	chio "github.com/matzehuels/changeover/pkg/io"
)

// viewCommand creates the view command for browsing a JSON report.
func (c *CLI) viewCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "view <report.json>",
		Short: "Browse a sequence report in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := chio.ImportReport(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("Loaded report", "run", rep.RunID, "rows", len(rep.Rows))
			printWarnings(rep.Warnings)

			title := fmt.Sprintf("Sequence %s (%s)", shortID(rep.RunID), rep.Mode)
			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render(title))
				fmt.Fprintln(cmd.OutOrStdout(), rowTable(rep.Rows, -1).Render())
				return nil
			}

			_, err = tea.NewProgram(NewReportModel(title, rep.Rows), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the table instead of opening the viewer")

	return cmd
}

// shortID abbreviates a run ID for display.
func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
