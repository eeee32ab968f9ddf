package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vdt/internal/domain"
)

// Environment variables read after the config file
const (
	EnvUsername  = "VDT_USERNAME"
	EnvPassword  = "VDT_PASSWORD"
	EnvToken     = "VDT_TOKEN"
	EnvEndpoint  = "VDT_ENDPOINT"
	EnvProject   = "VDT_PROJECT"
	EnvMaxShards = "VDT_MAX_SHARDS"
)

// Config holds all configuration for the application
type Config struct {
	Credentials domain.Credentials `yaml:"credentials"`
	Endpoint    string             `yaml:"endpoint"`
	Project     string             `yaml:"project"`

	// Run settings
	ApksDir   string `yaml:"apks_dir"`
	MaxShards int    `yaml:"max_shards"`
	GPU       bool   `yaml:"gpu"`
	Filter    string `yaml:"filter"`

	Fleet     FleetConfig     `yaml:"fleet"`
	Install   InstallConfig   `yaml:"install"`
	Execution ExecutionConfig `yaml:"execution"`
	API       APIConfig       `yaml:"api"`
	History   HistoryConfig   `yaml:"history"`

	ApkAnalyzer string `yaml:"apkanalyzer"`
	StorageDir  string `yaml:"storage_dir"`

	// Paths to ignore when scanning
	PathsToIgnore []string `yaml:"paths_to_ignore"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// FleetConfig describes the instances to provision
type FleetConfig struct {
	Prefix       string        `yaml:"prefix"`
	Flavor       string        `yaml:"flavor"`
	OS           string        `yaml:"os"`
	Screen       string        `yaml:"screen"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// InstallConfig tunes artifact installation
type InstallConfig struct {
	RemoteDir     string   `yaml:"remote_dir"`
	QuietCommands []string `yaml:"quiet_commands"`
}

// ExecutionConfig tunes test execution
type ExecutionConfig struct {
	Runner string        `yaml:"runner"`
	Settle time.Duration `yaml:"settle"`
}

// APIConfig throttles calls to the device farm
type APIConfig struct {
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// HistoryConfig selects the run history database
type HistoryConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or mysql
	DSN    string `yaml:"dsn"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigPath string
	ApksDir    string
	MaxShards  int
	Project    string
	GPU        *bool // nil keeps the file value
	Filter     string
	Settle     time.Duration
	Verbose    bool
	Limit      int
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		Endpoint:  DefaultEndpoint,
		Project:   DefaultProject,
		ApksDir:   DefaultApksDir,
		MaxShards: DefaultMaxShards,
		Fleet: FleetConfig{
			Prefix:       DefaultInstancePrefix,
			Flavor:       DefaultFlavor,
			OS:           DefaultOS,
			Screen:       DefaultScreen,
			ReadyTimeout: DefaultReadyTimeout,
		},
		Install: InstallConfig{RemoteDir: DefaultRemoteDir},
		Execution: ExecutionConfig{
			Runner: DefaultRunner,
			Settle: DefaultSettle,
		},
		API: APIConfig{
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		History:     HistoryConfig{Driver: DefaultHistoryDriver},
		ApkAnalyzer: DefaultApkAnalyzer,
		StorageDir:  DefaultStorageDir,
	}
	cfg.Install.QuietCommands = append([]string(nil), DefaultQuietCommands...)
	cfg.PathsToIgnore = append([]string(nil), DefaultPathsToIgnore...)
	return cfg
}

// Load builds the config from defaults, the config file, .env and the
// environment, then flags. Later sources win.
func Load(flags Flags) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}
	return load(flags, os.Getenv)
}

func load(flags Flags, getenv func(string) string) (*Config, error) {
	cfg := New()

	path := flags.ConfigPath
	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.readFile(path); err != nil {
		if flags.ConfigPath != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)
	return cfg, nil
}

// readFile merges a YAML file into the config. Keys missing from the file keep
// their current value.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &domain.ConfigurationError{Subject: path, Reason: "invalid YAML", Err: err}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(EnvUsername, &c.Credentials.Username)
	set(EnvPassword, &c.Credentials.Password)
	set(EnvToken, &c.Credentials.Token)
	set(EnvEndpoint, &c.Endpoint)
	set(EnvProject, &c.Project)

	if v := getenv(EnvMaxShards); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigurationError{Subject: EnvMaxShards, Reason: fmt.Sprintf("not a number: %q", v)}
		}
		c.MaxShards = n
	}
	return nil
}

func (c *Config) applyFlags(flags Flags) {
	c.Flags = flags

	if flags.ApksDir != "" {
		c.ApksDir = flags.ApksDir
	}
	if flags.MaxShards > 0 {
		c.MaxShards = flags.MaxShards
	}
	if flags.Project != "" {
		c.Project = flags.Project
	}
	if flags.GPU != nil {
		c.GPU = *flags.GPU
	}
	if flags.Filter != "" {
		c.Filter = flags.Filter
	}
	if flags.Settle != 0 {
		c.Execution.Settle = flags.Settle
	}
}

// Validate checks the settings a run needs
func (c *Config) Validate() error {
	if c.Credentials.Token == "" && (c.Credentials.Username == "" || c.Credentials.Password == "") {
		return &domain.ConfigurationError{
			Subject: "credentials",
			Reason:  fmt.Sprintf("set a token or username and password (%s, %s)", EnvUsername, EnvPassword),
		}
	}
	if c.Endpoint == "" {
		return &domain.ConfigurationError{Subject: "endpoint", Reason: "must not be empty"}
	}
	if c.Project == "" {
		return &domain.ConfigurationError{Subject: "project", Reason: "must not be empty"}
	}
	if c.MaxShards < 1 {
		return &domain.ConfigurationError{Subject: "max shards", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxShards)}
	}
	if info, err := os.Stat(c.ApksDir); err != nil || !info.IsDir() {
		return &domain.ConfigurationError{Subject: c.ApksDir, Reason: "apks directory not found", Err: err}
	}
	switch c.History.Driver {
	case "sqlite3", "mysql":
	default:
		return &domain.ConfigurationError{Subject: "history.driver", Reason: fmt.Sprintf("unsupported driver %q", c.History.Driver)}
	}
	if c.GetHistoryDSN() == "" {
		return &domain.ConfigurationError{Subject: "history.dsn", Reason: fmt.Sprintf("required for driver %q", c.History.Driver)}
	}
	return nil
}

// GetReportPath returns the path of the last run report. Resolves to an
// absolute path so run and report read the same file regardless of cwd.
func (c *Config) GetReportPath() string {
	p := filepath.Join(c.StorageDir, DefaultReportFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetLogPath returns the path of the structured log file
func (c *Config) GetLogPath() string {
	return filepath.Join(c.StorageDir, DefaultLogFile)
}

// GetHistoryDSN returns the history data source, defaulting to a sqlite file
// under the storage dir
func (c *Config) GetHistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	if c.History.Driver == DefaultHistoryDriver {
		return filepath.Join(c.StorageDir, DefaultHistoryFile)
	}
	return ""
}
