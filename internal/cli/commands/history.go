package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vdt/internal/config"
	"vdt/internal/domain"
	"vdt/internal/history"
)

// HistoryCommand handles the history command
type HistoryCommand struct {
	config *config.Config
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(cfg *config.Config) *HistoryCommand {
	return &HistoryCommand{config: cfg}
}

// Execute runs the command
func (hc *HistoryCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := history.Open(ctx, hc.config.History.Driver, hc.config.GetHistoryDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Migrate(ctx); err != nil {
		return err
	}
	runs, err := store.RecentRuns(ctx, hc.config.Flags.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		color.Yellow("No runs recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tPROJECT\tSTATUS\tSHARDS\tCASES\tPASSED\tFAILED\tDURATION")
	for _, r := range runs {
		status := color.GreenString("%s", r.Status)
		if r.Status != domain.StatusSucceeded {
			status = color.RedString("%s", r.Status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.1fs\n",
			r.StartedAt, r.RunID, r.Project, status, r.Shards, r.Cases, r.Passed, r.Failed, r.DurationSeconds)
	}
	return w.Flush()
}
