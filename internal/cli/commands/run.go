package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vdt/internal/config"
	"vdt/internal/domain"
	"vdt/internal/execution"
	"vdt/internal/history"
	"vdt/internal/install"
	"vdt/internal/pipeline"
	"vdt/internal/storage"
	"vdt/internal/transport"
	"vdt/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config *config.Config
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{config: cfg}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.config
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	// Discover apks
	apks, err := scanApks(cfg)
	if err != nil {
		return err
	}
	if len(apks) == 0 {
		color.Yellow("No app apks with androidTest apks found in %s", cfg.ApksDir)
		return nil
	}

	client := newClient(cfg, logger)
	dialer := transport.NewDialer(client, logger)

	orchestrator := newOrchestrator(cfg, client, logger)
	orchestrator.SetProgress(ui.NewProgressBar(cfg.MaxShards, "Booting devices"))

	driver := install.NewDriver(dialer, install.Options{
		RemoteDir:     cfg.Install.RemoteDir,
		QuietCommands: cfg.Install.QuietCommands,
	}, logger)
	pool := install.NewPool(driver, logger)
	pool.SetProgress(ui.NewProgressBar(cfg.MaxShards, "Installing apks"))

	settle := cfg.Execution.Settle
	if settle == 0 {
		settle = -1
	}
	coordinator := pipeline.NewCoordinator(pipeline.Deps{
		Auth:      client,
		Farm:      client,
		Fleet:     orchestrator,
		Parser:    newAnalyzer(cfg),
		Installer: pool,
		Executor:  execution.NewInstrumentExecutor(dialer, logger),
		Reporter:  ui.NewReporter(),
		Logger:    logger,
	}, pipeline.Options{
		Settle: settle,
		Runner: cfg.Execution.Runner,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := ui.NewFormatter()
	report, runErr := coordinator.Run(ctx, pipeline.Config{
		Credentials: cfg.Credentials,
		Apks:        apks,
		MaxShards:   cfg.MaxShards,
		ProjectName: cfg.Project,
		GPU:         cfg.GPU,
		Filter:      cfg.Filter,
	}, formatter.PrintOutputLine)

	// Persist whatever the run produced, even when it failed
	if err := storage.NewJSONStorage(cfg).Save(report); err != nil {
		logger.Error("failed to save report", zap.Error(err))
		color.Yellow("Warning: failed to save report: %v", err)
	}
	if err := recordHistory(context.WithoutCancel(ctx), cfg, report); err != nil {
		logger.Error("failed to record history", zap.Error(err))
		color.Yellow("Warning: failed to record run history: %v", err)
	}

	formatter.PrintReportStats(report)
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", report.Meta.RunID, runErr)
	}
	return nil
}

// recordHistory appends the report to the history database
func recordHistory(ctx context.Context, cfg *config.Config, report *domain.RunReport) error {
	store, err := history.Open(ctx, cfg.History.Driver, cfg.GetHistoryDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.RecordRun(ctx, report)
}
