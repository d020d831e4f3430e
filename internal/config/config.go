// Package config loads application configuration from file and
// environment, with XDG-relative defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// appName is the directory name used under the XDG base directories.
const appName = "youtube-dl-gui"

// ProxyConfig configures GitHub download mirroring.
type ProxyConfig struct {
	// Prefix is a proxy URL prepended to GitHub download URLs, tried
	// before the builtin mirrors. Overrides the BINARIES_GH_PROXY
	// environment variable when set.
	Prefix string `mapstructure:"prefix"`
}

// DownloadConfig configures network acquisition.
type DownloadConfig struct {
	// TimeoutSeconds bounds each download attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// EmbeddedConfig configures embedded payload release.
type EmbeddedConfig struct {
	// WriteRate caps disk writes in bytes per second.
	WriteRate int `mapstructure:"write_rate"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Path         string `mapstructure:"path"`
	ConsoleLevel string `mapstructure:"console_level"`
}

// Config represents the application configuration.
type Config struct {
	// BinDir is where helper binaries and the version ledger live.
	BinDir   string         `mapstructure:"bin_dir"`
	Proxy    ProxyConfig    `mapstructure:"proxy"`
	Download DownloadConfig `mapstructure:"download"`
	Embedded EmbeddedConfig `mapstructure:"embedded"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DownloadTimeout returns the per-attempt download timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/youtube-dl-gui/config.yaml
//   - $HOME/.config/youtube-dl-gui/config.yaml
//
// Environment variables are prefixed with YTDLGUI
// (e.g. YTDLGUI_BIN_DIR, YTDLGUI_PROXY_PREFIX).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", appName))

	v.SetEnvPrefix("YTDLGUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("bin_dir", DefaultBinDir())
	v.SetDefault("proxy.prefix", "")
	v.SetDefault("download.timeout_seconds", DefaultDownloadTimeoutSeconds)
	v.SetDefault("embedded.write_rate", DefaultEmbeddedWriteRate)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.BinDir, "~") {
		cfg.BinDir = filepath.Join(homeDir, cfg.BinDir[1:])
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// DataDir returns $XDG_DATA_HOME/youtube-dl-gui/ for helper binaries.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/youtube-dl-gui/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultBinDir returns the default helper binary directory.
func DefaultBinDir() string {
	return filepath.Join(DataDir(), "bin")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), appName+".log")
}
