package commands

import (
	"vdt/internal/cli"
	"vdt/internal/config"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	Shards  *ShardsCommand
	Devices *DevicesCommand
	Report  *ReportCommand
	History *HistoryCommand
}

// NewCommands creates all commands. They share cfg, which is loaded once the
// flags are parsed.
func NewCommands(cfg *config.Config, flags *cli.Flags) *Commands {
	return &Commands{
		Run:     NewRunCommand(cfg),
		Shards:  NewShardsCommand(cfg, flags),
		Devices: NewDevicesCommand(cfg, flags),
		Report:  NewReportCommand(cfg, flags),
		History: NewHistoryCommand(cfg),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to the config file (default vdt.yml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVarP(&flags.Project, "project", "p", "", "Device farm project name")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		flags.GPUSet = cmd.Flags().Changed("gpu")
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run instrumentation tests on virtual devices",
		Long:  "Shard the test apks, provision one virtual device per shard, install the apks and stream the test output",
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().StringVarP(&flags.ApksDir, "apks-dir", "d", "", "Directory scanned for app and androidTest apks")
	runCmd.Flags().IntVarP(&flags.MaxShards, "max-shards", "s", 0, "Maximum number of shards and devices")
	runCmd.Flags().BoolVar(&flags.GPU, "gpu", false, "Enable GPU acceleration on new devices")
	runCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Filter test cases by name pattern (supports wildcards, e.g., '*LoginTest#*' or '*Payment*')")
	runCmd.Flags().DurationVar(&flags.Settle, "settle", 0, "Wait between install and test execution (default 10s)")
	rootCmd.AddCommand(runCmd)

	// Shards command
	shardsCmd := &cobra.Command{
		Use:   "shards",
		Short: "Show how tests would be sharded",
		Long:  "Parse the test apks and print the shards a run would use without touching any device",
		RunE:  c.Shards.Execute,
	}
	shardsCmd.Flags().StringVarP(&flags.ApksDir, "apks-dir", "d", "", "Directory scanned for app and androidTest apks")
	shardsCmd.Flags().IntVarP(&flags.MaxShards, "max-shards", "s", 0, "Maximum number of shards")
	shardsCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Filter test cases by name pattern")
	shardsCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "t", false, "List test cases of every shard")
	rootCmd.AddCommand(shardsCmd)

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List or provision virtual devices",
		Long:  "List the devices of the project, or bring up a number of ready devices ahead of a run",
		RunE:  c.Devices.Execute,
	}
	devicesCmd.Flags().IntVar(&flags.Provision, "provision", 0, "Start or create devices until this many are ready")
	devicesCmd.Flags().BoolVar(&flags.GPU, "gpu", false, "Enable GPU acceleration on new devices")
	rootCmd.AddCommand(devicesCmd)

	// Report command
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "View the last run interactively",
		Long:  "Display the per device output of the last run in an interactive viewer",
		RunE:  c.Report.Execute,
	}
	reportCmd.Flags().BoolVar(&flags.Stats, "stats", false, "Print the statistics table instead of opening the viewer")
	rootCmd.AddCommand(reportCmd)

	// History command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs",
		Long:  "Show the most recent runs recorded in the history database",
		RunE:  c.History.Execute,
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
