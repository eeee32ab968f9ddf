package main

import (
	"fmt"
	"os"

	"vdt/internal/cli"
	"vdt/internal/cli/commands"
	"vdt/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "vdt",
		Short:         "Virtual device test runner",
		Long:          `Runs Android instrumentation tests sharded across cloud virtual devices. Devices are reused between runs, created on demand and left running afterwards.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, &flags)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
