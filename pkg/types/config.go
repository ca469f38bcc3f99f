package types

// Config is the full debugmate configuration, merged from config files and
// environment overrides by the config package.
type Config struct {
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	Backend BackendConfig  `json:"backend,omitempty" yaml:"backend,omitempty"`
	Runner  RunnerConfig   `json:"runner,omitempty" yaml:"runner,omitempty"`
	Archive *ArchiveConfig `json:"archive,omitempty" yaml:"archive,omitempty"`
	Watcher *WatcherConfig `json:"watcher,omitempty" yaml:"watcher,omitempty"`
	Server  ServerConfig   `json:"server,omitempty" yaml:"server,omitempty"`

	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// BackendConfig points the dispatcher at the analysis service.
type BackendConfig struct {
	// BaseURL is the root of the backend, e.g. "http://127.0.0.1:8000".
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	// MaxPayload clamps prepared text before transmission, in bytes.
	MaxPayload int `json:"maxPayload,omitempty" yaml:"maxPayload,omitempty"`
	// NotebookStrategy is "cells" (extract) or "raw" (send as-is).
	NotebookStrategy string `json:"notebookStrategy,omitempty" yaml:"notebookStrategy,omitempty"`
	// TimeoutSec bounds a single request attempt.
	TimeoutSec int `json:"timeoutSec,omitempty" yaml:"timeoutSec,omitempty"`
}

// RunnerConfig holds defaults for remote test and command runs.
type RunnerConfig struct {
	Repo       string `json:"repo,omitempty" yaml:"repo,omitempty"`
	TestPath   string `json:"testPath,omitempty" yaml:"testPath,omitempty"`
	UseDocker  bool   `json:"useDocker,omitempty" yaml:"useDocker,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty" yaml:"timeoutSec,omitempty"`
}

// ArchiveConfig enables on-disk archiving of analysis records.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// WatcherConfig controls the cached-artifact file watcher.
type WatcherConfig struct {
	Enabled bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Ignore  []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// ServerConfig configures the local HTTP bridge.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// Default values applied by config.Load when a field is unset.
const (
	DefaultBackendURL       = "http://127.0.0.1:8000"
	DefaultMaxPayload       = 2_097_152
	DefaultNotebookStrategy = "cells"
	DefaultRequestTimeout   = 120
	DefaultRunnerRepo       = "."
	DefaultRunnerTestPath   = "tests"
	DefaultRunnerTimeout    = 600
	DefaultServerHost       = "127.0.0.1"
	DefaultServerPort       = 4096
)
