package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file not found (run 'webmodes init' to create one): %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return decode(v)
}

// newViper prepares a viper instance with defaults and search paths
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		return v
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Check current directory first
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".webmodes"))
	}

	v.AddConfigPath("/etc/webmodes/")

	return v
}

// decode unmarshals and validates the configuration held by v
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// qBittorrent defaults
	v.SetDefault("qbittorrent.url", "http://127.0.0.1:8080")
	v.SetDefault("qbittorrent.username", "admin")
	v.SetDefault("qbittorrent.verify_ssl", false)
	v.SetDefault("qbittorrent.timeout", "30s")
	v.SetDefault("qbittorrent.comment_workers", 8)

	// Server defaults
	v.SetDefault("server.address", "127.0.0.1:7474")
	v.SetDefault("server.metrics", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.QBittorrent.URL == "" {
		return fmt.Errorf("qbittorrent.url is required")
	}
	if u, err := url.Parse(cfg.QBittorrent.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("qbittorrent.url must be an absolute URL: %s", cfg.QBittorrent.URL)
	}

	if cfg.QBittorrent.CommentWorkers < 1 {
		return fmt.Errorf("qbittorrent.comment_workers must be at least 1")
	}

	for i, mode := range cfg.WebModes {
		if strings.TrimSpace(mode.Name) == "" {
			return fmt.Errorf("web_modes[%d]: name is required", i)
		}
		if mode.Pattern == "" {
			return fmt.Errorf("web_modes[%d] (%s): pattern is required", i, mode.Name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
