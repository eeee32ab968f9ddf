package commands

import (
	"github.com/spf13/cobra"

	"vdt/internal/cli"
	"vdt/internal/config"
	"vdt/internal/storage"
	"vdt/internal/ui"
)

// ReportCommand handles the report command
type ReportCommand struct {
	config *config.Config
	flags  *cli.Flags
}

// NewReportCommand creates a new ReportCommand
func NewReportCommand(cfg *config.Config, flags *cli.Flags) *ReportCommand {
	return &ReportCommand{config: cfg, flags: flags}
}

// Execute runs the command
func (rc *ReportCommand) Execute(cmd *cobra.Command, args []string) error {
	report, err := storage.NewJSONStorage(rc.config).Load()
	if err != nil {
		return err
	}

	if rc.flags.Stats {
		ui.NewFormatter().PrintReportStats(report)
		return nil
	}

	var viewer ui.Viewer = ui.NewInstanceViewer()
	return viewer.View(report)
}
