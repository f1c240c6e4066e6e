package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.ProjectsFile != "javaseeker-projects.yml" {
		t.Errorf("ProjectsFile = %q", cfg.ProjectsFile)
	}
	if cfg.Lifecycle.PollInterval() != 10*time.Second {
		t.Errorf("PollInterval() = %v, want 10s", cfg.Lifecycle.PollInterval())
	}
	if cfg.Lifecycle.InitialDelay() != 7*time.Second {
		t.Errorf("InitialDelay() = %v, want 7s", cfg.Lifecycle.InitialDelay())
	}
	if cfg.Lifecycle.ConfigCheckInterval() != 5*time.Second {
		t.Errorf("ConfigCheckInterval() = %v, want 5s", cfg.Lifecycle.ConfigCheckInterval())
	}
	if cfg.Build.Timeout() != 10*time.Minute {
		t.Errorf("Build.Timeout() = %v, want 10m", cfg.Build.Timeout())
	}
	if cfg.Build.LogHeadBytes != 2048 {
		t.Errorf("LogHeadBytes = %d, want 2048", cfg.Build.LogHeadBytes)
	}
	if cfg.Git.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", cfg.Git.DefaultBranch)
	}
	if len(cfg.Analysis.PlatformPrefixes) != 2 {
		t.Errorf("PlatformPrefixes = %v", cfg.Analysis.PlatformPrefixes)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != DefaultConfig().Server.Addr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Lifecycle.InFlightGuard {
		t.Error("InFlightGuard should default to true")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	base := t.TempDir()
	content := `{
  "version": 1,
  "projectsFile": "projects.toml",
  "build": {"timeoutSeconds": 42},
  "analysis": {"platformPrefixes": ["java.", "javax.", "jdk."]}
}`
	if err := os.WriteFile(filepath.Join(base, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(base)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ProjectsFile != "projects.toml" {
		t.Errorf("ProjectsFile = %q", cfg.ProjectsFile)
	}
	if cfg.Build.TimeoutSeconds != 42 {
		t.Errorf("Build.TimeoutSeconds = %d, want 42", cfg.Build.TimeoutSeconds)
	}
	if cfg.Build.LogHeadBytes != 2048 {
		t.Errorf("unset keys should keep defaults, LogHeadBytes = %d", cfg.Build.LogHeadBytes)
	}
	if len(cfg.Analysis.PlatformPrefixes) != 3 {
		t.Errorf("PlatformPrefixes = %v", cfg.Analysis.PlatformPrefixes)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("JAVASEEKER_SERVER_ADDR", "0.0.0.0:9999")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9999" {
		t.Errorf("Server.Addr = %q, want env override", cfg.Server.Addr)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(base); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".javaseeker")
	cfg := DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:7000"

	if err := cfg.Save(base); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(base)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Server.Addr = %q", loaded.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"empty projects file", func(c *Config) { c.ProjectsFile = "" }, "projectsFile"},
		{"zero poll", func(c *Config) { c.Lifecycle.PollIntervalSeconds = 0 }, "lifecycle.pollIntervalSeconds"},
		{"zero build timeout", func(c *Config) { c.Build.TimeoutSeconds = 0 }, "build.timeoutSeconds"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}
