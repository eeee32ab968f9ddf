package install

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"vdt/internal/domain"
)

// DefaultRemoteDir is where apks are uploaded on the device
const DefaultRemoteDir = "/sdcard"

// DefaultQuietCommands lower the kernel log level of the device console
var DefaultQuietCommands = []string{"su", "dmesg -n 1", "exit"}

// Installer installs an artifact set on one instance
type Installer interface {
	Install(ctx context.Context, inst domain.Instance, set domain.ArtifactInstallSet) error
}

// Options configure a Driver
type Options struct {
	RemoteDir     string
	QuietCommands []string
}

// Driver pushes and installs apks on a device through its agent and console
type Driver struct {
	transport Transport
	opts      Options
	logger    *zap.Logger
	readFile  func(string) ([]byte, error)
}

// NewDriver creates a new Driver
func NewDriver(transport Transport, opts Options, logger *zap.Logger) *Driver {
	if opts.RemoteDir == "" {
		opts.RemoteDir = DefaultRemoteDir
	}
	if opts.QuietCommands == nil {
		opts.QuietCommands = DefaultQuietCommands
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{transport: transport, opts: opts, logger: logger, readFile: os.ReadFile}
}

// InstallCommand returns the package manager command for an uploaded apk.
// Test apks are installed with -t so test-only packages are accepted.
func InstallCommand(localPath, remotePath string) string {
	if domain.IsTestArtifact(localPath) {
		return "pm install -t " + remotePath
	}
	return "pm install " + remotePath
}

// RemotePath returns the device path an artifact is uploaded to
func (d *Driver) RemotePath(localPath string) string {
	return path.Join(d.opts.RemoteDir, filepath.Base(localPath))
}

// Install uploads and installs every artifact of set in order. The console is
// closed and the agent disconnected on every return path. The first failing
// artifact stops the loop.
func (d *Driver) Install(ctx context.Context, inst domain.Instance, set domain.ArtifactInstallSet) (err error) {
	logger := d.logger.With(zap.String("instance", inst.ID))

	if inst.Agent == "" {
		return &domain.ConfigurationError{
			Subject: inst.ID,
			Reason:  fmt.Sprintf("cannot connect to the agent, no agent info for instance %s", inst.Name),
			Err:     domain.ErrNoAgent,
		}
	}

	logger.Info("connecting agent")
	agent, err := d.transport.ConnectAgent(ctx, inst.Agent)
	if err != nil {
		return domain.Remote("connect agent", inst.ID, err)
	}
	defer func() {
		if derr := agent.Disconnect(); derr != nil && err == nil {
			err = domain.Remote("disconnect agent", inst.ID, derr)
		}
	}()

	logger.Info("connecting console")
	console, err := d.transport.ConnectConsole(ctx, inst.ID)
	if err != nil {
		return domain.Remote("connect console", inst.ID, err)
	}
	defer func() {
		if cerr := console.Close(); cerr != nil && err == nil {
			err = domain.Remote("close console", inst.ID, cerr)
		}
	}()

	for _, command := range d.opts.QuietCommands {
		if err := console.SendCommand(ctx, command); err != nil {
			return domain.Remote("send command", inst.ID, err)
		}
	}

	for _, localPath := range set.Paths {
		data, err := d.readFile(localPath)
		if err != nil {
			return &domain.ConfigurationError{Subject: localPath, Reason: "cannot read artifact", Err: err}
		}

		remotePath := d.RemotePath(localPath)
		logger.Info("uploading apk", zap.String("apk", localPath), zap.String("remote", remotePath), zap.Int("bytes", len(data)))
		if err := agent.UploadFile(ctx, remotePath, data); err != nil {
			return domain.Remote("upload", remotePath, err)
		}

		logger.Info("installing apk", zap.String("apk", localPath))
		if err := console.SendCommand(ctx, InstallCommand(localPath, remotePath)); err != nil {
			return domain.Remote("install", remotePath, err)
		}
	}

	return nil
}
