package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CurrentVersion is the settings schema version
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. JAVASEEKER_SERVER_ADDR
const EnvPrefix = "JAVASEEKER"

// Config represents the application settings stored in <base>/config.json
type Config struct {
	Version      int    `json:"version" mapstructure:"version"`
	ProjectsFile string `json:"projectsFile" mapstructure:"projectsFile"`
	CacheRoot    string `json:"cacheRoot" mapstructure:"cacheRoot"`

	Lifecycle LifecycleConfig `json:"lifecycle" mapstructure:"lifecycle"`
	Git       GitConfig       `json:"git" mapstructure:"git"`
	Build     BuildConfig     `json:"build" mapstructure:"build"`
	Analysis  AnalysisConfig  `json:"analysis" mapstructure:"analysis"`
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Watcher   WatcherConfig   `json:"watcher" mapstructure:"watcher"`
	History   HistoryConfig   `json:"history" mapstructure:"history"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// LifecycleConfig controls the poll loop and the sequential worker
type LifecycleConfig struct {
	PollIntervalSeconds  int  `json:"pollIntervalSeconds" mapstructure:"pollIntervalSeconds"`
	InitialDelaySeconds  int  `json:"initialDelaySeconds" mapstructure:"initialDelaySeconds"`
	ConfigCheckSeconds   int  `json:"configCheckSeconds" mapstructure:"configCheckSeconds"`
	ShutdownGraceSeconds int  `json:"shutdownGraceSeconds" mapstructure:"shutdownGraceSeconds"`
	QueueSize            int  `json:"queueSize" mapstructure:"queueSize"`
	InFlightGuard        bool `json:"inFlightGuard" mapstructure:"inFlightGuard"`
}

// GitConfig contains source synchronization settings
type GitConfig struct {
	Binary        string `json:"binary" mapstructure:"binary"`
	DefaultBranch string `json:"defaultBranch" mapstructure:"defaultBranch"`
}

// BuildConfig contains build invocation settings
type BuildConfig struct {
	TimeoutSeconds int  `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	LogHeadBytes   int  `json:"logHeadBytes" mapstructure:"logHeadBytes"`
	ArchiveLogs    bool `json:"archiveLogs" mapstructure:"archiveLogs"`
	KeepArchives   int  `json:"keepArchives" mapstructure:"keepArchives"`
}

// AnalysisConfig contains model building and reference walking settings
type AnalysisConfig struct {
	PlatformPrefixes     []string `json:"platformPrefixes" mapstructure:"platformPrefixes"`
	MaxContextChars      int      `json:"maxContextChars" mapstructure:"maxContextChars"`
	ContextFallbackChars int      `json:"contextFallbackChars" mapstructure:"contextFallbackChars"`
	ArchiveCacheSize     int      `json:"archiveCacheSize" mapstructure:"archiveCacheSize"`
	ParseWorkers         int      `json:"parseWorkers" mapstructure:"parseWorkers"`
	RespectGitignore     bool     `json:"respectGitignore" mapstructure:"respectGitignore"`
	AllowNoBuildFile     bool     `json:"allowNoBuildFile" mapstructure:"allowNoBuildFile"`
}

// ServerConfig contains HTTP transport settings
type ServerConfig struct {
	Addr              string  `json:"addr" mapstructure:"addr"`
	RequestsPerSecond float64 `json:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	Burst             int     `json:"burst" mapstructure:"burst"`
}

// WatcherConfig controls the descriptor file watcher
type WatcherConfig struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	DebounceMs int  `json:"debounceMs" mapstructure:"debounceMs"`
}

// HistoryConfig controls the lifecycle run history
type HistoryConfig struct {
	RetentionHours int `json:"retentionHours" mapstructure:"retentionHours"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:      CurrentVersion,
		ProjectsFile: "javaseeker-projects.yml",
		CacheRoot:    ".cache",
		Lifecycle: LifecycleConfig{
			PollIntervalSeconds:  10,
			InitialDelaySeconds:  7,
			ConfigCheckSeconds:   5,
			ShutdownGraceSeconds: 30,
			QueueSize:            100,
			InFlightGuard:        true,
		},
		Git: GitConfig{
			Binary:        "git",
			DefaultBranch: "main",
		},
		Build: BuildConfig{
			TimeoutSeconds: 600,
			LogHeadBytes:   2048,
			ArchiveLogs:    true,
			KeepArchives:   5,
		},
		Analysis: AnalysisConfig{
			PlatformPrefixes:     []string{"java.", "javax."},
			MaxContextChars:      2000,
			ContextFallbackChars: 500,
			ArchiveCacheSize:     256,
			ParseWorkers:         4,
			RespectGitignore:     true,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8090",
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		History: HistoryConfig{
			RetentionHours: 24 * 30,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("projectsFile", d.ProjectsFile)
	v.SetDefault("cacheRoot", d.CacheRoot)

	v.SetDefault("lifecycle.pollIntervalSeconds", d.Lifecycle.PollIntervalSeconds)
	v.SetDefault("lifecycle.initialDelaySeconds", d.Lifecycle.InitialDelaySeconds)
	v.SetDefault("lifecycle.configCheckSeconds", d.Lifecycle.ConfigCheckSeconds)
	v.SetDefault("lifecycle.shutdownGraceSeconds", d.Lifecycle.ShutdownGraceSeconds)
	v.SetDefault("lifecycle.queueSize", d.Lifecycle.QueueSize)
	v.SetDefault("lifecycle.inFlightGuard", d.Lifecycle.InFlightGuard)

	v.SetDefault("git.binary", d.Git.Binary)
	v.SetDefault("git.defaultBranch", d.Git.DefaultBranch)

	v.SetDefault("build.timeoutSeconds", d.Build.TimeoutSeconds)
	v.SetDefault("build.logHeadBytes", d.Build.LogHeadBytes)
	v.SetDefault("build.archiveLogs", d.Build.ArchiveLogs)
	v.SetDefault("build.keepArchives", d.Build.KeepArchives)

	v.SetDefault("analysis.platformPrefixes", d.Analysis.PlatformPrefixes)
	v.SetDefault("analysis.maxContextChars", d.Analysis.MaxContextChars)
	v.SetDefault("analysis.contextFallbackChars", d.Analysis.ContextFallbackChars)
	v.SetDefault("analysis.archiveCacheSize", d.Analysis.ArchiveCacheSize)
	v.SetDefault("analysis.parseWorkers", d.Analysis.ParseWorkers)
	v.SetDefault("analysis.respectGitignore", d.Analysis.RespectGitignore)
	v.SetDefault("analysis.allowNoBuildFile", d.Analysis.AllowNoBuildFile)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.requestsPerSecond", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)

	v.SetDefault("watcher.enabled", d.Watcher.Enabled)
	v.SetDefault("watcher.debounceMs", d.Watcher.DebounceMs)

	v.SetDefault("history.retentionHours", d.History.RetentionHours)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// LoadConfig loads settings from <base>/config.json, layered over the
// defaults and under JAVASEEKER_* environment variables. A missing file is
// not an error.
func LoadConfig(base string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(base)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <base>/config.json
func (c *Config) Save(base string) error {
	if err := os.MkdirAll(base, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(base, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.ProjectsFile == "" {
		return &ConfigError{Field: "projectsFile", Message: "must not be empty"}
	}
	if c.Lifecycle.PollIntervalSeconds <= 0 {
		return &ConfigError{Field: "lifecycle.pollIntervalSeconds", Message: "must be positive"}
	}
	if c.Lifecycle.ConfigCheckSeconds <= 0 {
		return &ConfigError{Field: "lifecycle.configCheckSeconds", Message: "must be positive"}
	}
	if c.Build.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "build.timeoutSeconds", Message: "must be positive"}
	}
	if c.Analysis.MaxContextChars < 4 {
		return &ConfigError{Field: "analysis.maxContextChars", Message: "must be at least 4"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// PollInterval returns the lifecycle tick interval
func (l LifecycleConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalSeconds) * time.Second
}

// InitialDelay returns the delay before the first tick
func (l LifecycleConfig) InitialDelay() time.Duration {
	return time.Duration(l.InitialDelaySeconds) * time.Second
}

// ConfigCheckInterval returns how often the descriptor file mtime is checked
func (l LifecycleConfig) ConfigCheckInterval() time.Duration {
	return time.Duration(l.ConfigCheckSeconds) * time.Second
}

// ShutdownGrace returns how long in-flight work may run after shutdown starts
func (l LifecycleConfig) ShutdownGrace() time.Duration {
	return time.Duration(l.ShutdownGraceSeconds) * time.Second
}

// Timeout returns the hard build timeout
func (b BuildConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Retention returns how long finished runs are kept
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionHours) * time.Hour
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
