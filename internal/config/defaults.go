package config

import "time"

const (
	// DefaultConfigFile is read from the working directory when no --config is given
	DefaultConfigFile = "vdt.yml"
	// DefaultEnvFile holds credentials kept out of the config file
	DefaultEnvFile = ".env"
	// DefaultEndpoint is the device farm API
	DefaultEndpoint = "https://app.corellium.com"
	// DefaultProject is the farm project instances are created in
	DefaultProject = "Default Project"
	// DefaultApksDir is scanned for app and test apks
	DefaultApksDir = "."
	// DefaultMaxShards is the default upper bound of parallel instances
	DefaultMaxShards = 2
	// DefaultStorageDir holds reports, history and logs
	DefaultStorageDir = "storage"
	// DefaultReportFile is the JSON report of the last run
	DefaultReportFile = "last-run.json"
	// DefaultLogFile is the structured log of every run
	DefaultLogFile = "vdt.log"
	// DefaultHistoryDriver is the database/sql driver of the run history
	DefaultHistoryDriver = "sqlite3"
	// DefaultHistoryFile is the sqlite database under the storage dir
	DefaultHistoryFile = "history.db"
	// DefaultApkAnalyzer is looked up on PATH
	DefaultApkAnalyzer = "apkanalyzer"
	// DefaultRemoteDir receives uploaded apks on the device
	DefaultRemoteDir = "/sdcard"
	// DefaultRunner is the instrumentation runner class
	DefaultRunner = "androidx.test.runner.AndroidJUnitRunner"
	// DefaultInstancePrefix names the instances this tool manages
	DefaultInstancePrefix = "vdt-android-"
	// DefaultFlavor is the device model of new instances
	DefaultFlavor = "ranchu"
	// DefaultOS is the Android version of new instances
	DefaultOS = "11.0.0"
	// DefaultScreen is width x height : dpi
	DefaultScreen = "720x1280:280"
	// DefaultReadyTimeout bounds the wait for one instance to boot
	DefaultReadyTimeout = 15 * time.Minute
	// DefaultSettle is the pause between install and test execution
	DefaultSettle = 10 * time.Second
	// DefaultRateLimit is the number of API requests per second
	DefaultRateLimit = 5.0
	// DefaultRateBurst is the API request burst size
	DefaultRateBurst = 10
)

// DefaultQuietCommands lower the kernel log level before installing
var DefaultQuietCommands = []string{"su", "dmesg -n 1", "exit"}

// DefaultPathsToIgnore are skipped when scanning for apks
var DefaultPathsToIgnore = []string{
	".git",
	".gradle",
	"node_modules",
	"storage",
	"intermediates",
	"tmp",
}
