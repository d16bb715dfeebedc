package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/changeover/pkg/store"
)

// runsCommand creates the run history command.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with "optimize --record".

Runs live in MongoDB when [store] mongo_uri is set in config.toml,
otherwise under ~/.config/changeover/runs.`,
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No recorded runs")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs).Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "maximum number of runs")

	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()

			run, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printKeyValue("Run", run.ID)
			printKeyValue("Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printKeyValue("Source", run.Source)
			printKeyValue("Mode", run.Mode)
			printKeyValue("Quality", fmt.Sprintf("%s (%s)", run.Controls.Quality, run.Controls.Timeout))
			if run.Controls.LayerMode != "" {
				printKeyValue("Layer mode", run.Controls.LayerMode)
			}
			printKeyValue("Changeover", strconv.Itoa(run.Summary.TotalCost))
			printWarnings(run.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), rowTable(run.Rows, -1).Render())
			return nil
		},
	}
}

func runsTable(runs []*store.Run) *table.Table {
	data := make([][]string, len(runs))
	for i, r := range runs {
		data[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			r.Mode,
			strconv.Itoa(r.Summary.Jobs),
			strconv.Itoa(r.Summary.TotalCost),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("Run", "Created", "Source", "Mode", "Jobs", "Cost").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
