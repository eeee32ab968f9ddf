package commands

import (
	"go.uber.org/zap"

	"vdt/internal/apk"
	"vdt/internal/config"
	"vdt/internal/corellium"
	"vdt/internal/discovery"
	"vdt/internal/domain"
	"vdt/internal/fleet"
	"vdt/internal/logging"
)

// newLogger builds the run logger from the loaded config. Call the returned
// func when the command ends.
func newLogger(cfg *config.Config) (*zap.Logger, func() error, error) {
	return logging.New(cfg.Flags.Verbose, cfg.GetLogPath())
}

// newClient creates the device farm client from the loaded config
func newClient(cfg *config.Config, logger *zap.Logger) *corellium.Client {
	return corellium.NewClient(corellium.Options{
		Endpoint:  cfg.Endpoint,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}, logger)
}

// newOrchestrator creates the fleet orchestrator from the loaded config
func newOrchestrator(cfg *config.Config, provider fleet.Provider, logger *zap.Logger) *fleet.Orchestrator {
	return fleet.NewOrchestrator(provider, fleet.Options{
		Prefix: cfg.Fleet.Prefix,
		Profile: fleet.Profile{
			Flavor: cfg.Fleet.Flavor,
			OS:     cfg.Fleet.OS,
			Screen: cfg.Fleet.Screen,
		},
		ReadyTimeout: cfg.Fleet.ReadyTimeout,
	}, logger)
}

// scanApks finds the app apks with their test apks under the configured dir
func scanApks(cfg *config.Config) ([]domain.Apk, error) {
	return discovery.NewScanner(cfg.PathsToIgnore).Scan(cfg.ApksDir)
}

func newAnalyzer(cfg *config.Config) *apk.Analyzer {
	return apk.NewAnalyzer(cfg.ApkAnalyzer)
}
