// Package config loads litmus configuration from the data directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the data directory
const FileName = "config.yaml"

// Config represents litmus configuration options. Relative paths are resolved
// against DataDir.
type Config struct {
	// DataDir holds the database, attachments, logs and settings
	DataDir string `yaml:"data_dir"`

	// Database is the SQLite database file
	Database string `yaml:"database"`

	// AttachmentsDir is where attachment copies are stored
	AttachmentsDir string `yaml:"attachments_dir"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	LogFile      string `yaml:"log_file"`
	ErrorLog     string `yaml:"error_log"`
	SettingsFile string `yaml:"settings_file"`

	// RecentRuns is how many previous runs are offered as a source
	RecentRuns int `yaml:"recent_runs"`

	// MoveToEndGap is added to the sort order when a test is moved to the end
	MoveToEndGap int `yaml:"move_to_end_gap"`
}

// DefaultConfig returns a Config with default values and no data directory
func DefaultConfig() *Config {
	return &Config{
		Database:       "litmus.db",
		AttachmentsDir: "attachments",
		LogLevel:       "info",
		LogFile:        "litmus.log",
		ErrorLog:       "error.log",
		SettingsFile:   "settings.json",
		RecentRuns:     10,
		MoveToEndGap:   1000,
	}
}

// DataDir resolves the data directory: LITMUS_HOME, then
// $XDG_DATA_HOME/litmus, then ~/.local/share/litmus
func DataDir() (string, error) {
	if home := os.Getenv("LITMUS_HOME"); home != "" {
		return home, nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "litmus"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "litmus"), nil
}

// LoadEnv loads variables from an env file. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load resolves the data directory, reads its config file and applies env and
// flag overrides. The flag data dir, when set, also decides where the config
// file is read from.
func Load(dbPath, dataDir, logLevel *string) (*Config, error) {
	dir := ""
	if dataDir != nil && *dataDir != "" {
		dir = *dataDir
	} else {
		d, err := DataDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg, err := LoadConfig(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	cfg.ApplyEnv()
	cfg.MergeWithFlags(dbPath, dataDir, logLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies LITMUS_DB and LITMUS_LOG_LEVEL
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LITMUS_DB"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("LITMUS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// MergeWithFlags applies non-nil, non-empty flag values
func (c *Config) MergeWithFlags(dbPath, dataDir, logLevel *string) {
	if dataDir != nil && *dataDir != "" {
		c.DataDir = *dataDir
	}
	if dbPath != nil && *dbPath != "" {
		c.Database = *dbPath
	}
	if logLevel != nil && *logLevel != "" {
		c.LogLevel = *logLevel
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database cannot be empty")
	}
	if c.RecentRuns <= 0 {
		return fmt.Errorf("recent_runs must be > 0, got %d", c.RecentRuns)
	}
	if c.MoveToEndGap <= 0 {
		return fmt.Errorf("move_to_end_gap must be > 0, got %d", c.MoveToEndGap)
	}
	return nil
}

// Resolve returns p made absolute against the data directory. ":memory:" is
// passed through.
func (c *Config) Resolve(p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *Config) DatabasePath() string    { return c.Resolve(c.Database) }
func (c *Config) AttachmentsPath() string { return c.Resolve(c.AttachmentsDir) }
func (c *Config) LogPath() string         { return c.Resolve(c.LogFile) }
func (c *Config) ErrorLogPath() string    { return c.Resolve(c.ErrorLog) }
func (c *Config) SettingsPath() string    { return c.Resolve(c.SettingsFile) }
