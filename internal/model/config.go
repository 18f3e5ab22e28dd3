package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig holds settings for the embedded store.
type DatabaseConfig struct {
	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// SyncConfig holds settings for the background feed sync.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) the external scheduler
	// should trigger a sync pass.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// PageSize is the number of remote notifications fetched per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// CleanupConfig holds defaults for the retention sweep.
type CleanupConfig struct {
	// RetentionDays is how long archived or muted notifications are kept
	// before becoming eligible for deletion. Zero disables the sweep.
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`

	// ProtectStarred excludes starred notifications from the sweep.
	ProtectStarred bool `mapstructure:"protect_starred" yaml:"protect_starred"`

	// ProtectTagged excludes tagged notifications from the sweep.
	ProtectTagged bool `mapstructure:"protect_tagged" yaml:"protect_tagged"`

	// BatchSize bounds how many rows a single sweep deletes.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup" yaml:"cleanup"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/gh-inbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "gh-inbox", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: filepath.Join(filepath.Dir(DefaultConfigPath()), "inbox.db"),
		},
		Sync: SyncConfig{
			PollIntervalSec: 60,
			PageSize:        50,
		},
		Cleanup: CleanupConfig{
			RetentionDays:  90,
			ProtectStarred: true,
			ProtectTagged:  true,
			BatchSize:      500,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("sync.poll_interval_sec", 60)
	v.SetDefault("sync.page_size", 50)
	v.SetDefault("cleanup.retention_days", 90)
	v.SetDefault("cleanup.protect_starred", true)
	v.SetDefault("cleanup.protect_tagged", true)
	v.SetDefault("cleanup.batch_size", 500)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("sync", cfg.Sync)
	v.Set("cleanup", cfg.Cleanup)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
