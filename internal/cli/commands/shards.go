package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vdt/internal/cli"
	"vdt/internal/config"
	"vdt/internal/pipeline"
	"vdt/internal/sharding"
	"vdt/internal/ui"
)

// ShardsCommand handles the shards command
type ShardsCommand struct {
	config *config.Config
	flags  *cli.Flags
}

// NewShardsCommand creates a new ShardsCommand
func NewShardsCommand(cfg *config.Config, flags *cli.Flags) *ShardsCommand {
	return &ShardsCommand{config: cfg, flags: flags}
}

// Execute runs the command
func (sc *ShardsCommand) Execute(cmd *cobra.Command, args []string) error {
	apks, err := scanApks(sc.config)
	if err != nil {
		return err
	}
	if len(apks) == 0 {
		color.Yellow("No app apks with androidTest apks found in %s", sc.config.ApksDir)
		return nil
	}

	input, err := pipeline.PrepareShardInput(cmd.Context(), newAnalyzer(sc.config), apks, sc.config.Filter)
	if err != nil {
		return err
	}
	shards, err := sharding.NewLargestFirst().Assign(input, sc.config.MaxShards)
	if err != nil {
		return err
	}

	ui.NewFormatter().PrintShardTree(shards, sc.flags.TestCases)
	return nil
}
