// Package logging builds the structured logger shared by all components.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing JSON to path. Verbose lowers the level to
// debug and mirrors entries to stderr in console format. An empty path
// only logs when verbose. The returned close func syncs the logger and closes
// the log file.
func New(verbose bool, path string) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
	}
	if verbose {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		// Sync on stderr fails on terminals; only the file matters here
		_ = logger.Sync()
		if file == nil {
			return nil
		}
		return file.Close()
	}
	return logger, closeFn, nil
}
