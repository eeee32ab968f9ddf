package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vdt/internal/cli"
	"vdt/internal/config"
	"vdt/internal/fleet"
	"vdt/internal/ui"
)

// DevicesCommand handles the devices command
type DevicesCommand struct {
	config *config.Config
	flags  *cli.Flags
}

// NewDevicesCommand creates a new DevicesCommand
func NewDevicesCommand(cfg *config.Config, flags *cli.Flags) *DevicesCommand {
	return &DevicesCommand{config: cfg, flags: flags}
}

// Execute runs the command
func (dc *DevicesCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := dc.config
	ctx := cmd.Context()

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client := newClient(cfg, logger)
	if err := client.Authorize(ctx, cfg.Credentials); err != nil {
		return err
	}
	projectID, err := client.ProjectID(ctx, cfg.Project)
	if err != nil {
		return err
	}

	if dc.flags.Provision > 0 {
		color.Cyan("Bringing up %d devices in %s", dc.flags.Provision, cfg.Project)

		orchestrator := newOrchestrator(cfg, client, logger)
		orchestrator.SetProgress(ui.NewProgressBar(dc.flags.Provision, "Booting devices"))
		ready, err := orchestrator.Invoke(ctx, fleet.Request{
			ProjectID:       projectID,
			Amount:          dc.flags.Provision,
			GPUAcceleration: cfg.GPU,
		})
		if err != nil {
			return err
		}
		ids := fleet.Collect(ready)
		if len(ids) < dc.flags.Provision {
			color.Yellow("Only %d of %d devices became ready", len(ids), dc.flags.Provision)
		} else {
			color.Green("✓ %d devices ready", len(ids))
		}
		fmt.Println()
	}

	instances, err := client.ListInstances(ctx, projectID)
	if err != nil {
		return err
	}
	ui.NewFormatter().PrintInstances(instances)
	return nil
}
