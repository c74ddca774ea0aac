package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/s0up4200/webmodes/webmode"
)

// DefaultWebModes returns the modes written to a fresh configuration file
func DefaultWebModes() []webmode.Config {
	return []webmode.Config{
		{
			Name:        "KamePT",
			Pattern:     `https?://kamept\.com/details\.php\?id=\d+`,
			Template:    "{value}",
			Description: "Comment holds the full KamePT detail link",
		},
		{
			Name:        "M-Team",
			Pattern:     `(?P<tid>\d{3,})`,
			Template:    "https://kp.m-team.cc/detail/{tid}",
			Description: "Comment holds only the numeric torrent ID",
		},
	}
}

// Default returns the configuration written by WriteDefault
func Default() *Config {
	return &Config{
		QBittorrent: QBittorrentConfig{
			URL:            "http://127.0.0.1:8080",
			Username:       "admin",
			Password:       "adminadmin",
			Timeout:        30 * time.Second,
			CommentWorkers: 8,
		},
		WebModes: DefaultWebModes(),
		Server: ServerConfig{
			Address: "127.0.0.1:7474",
			Metrics: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Color:  true,
		},
	}
}

// WriteDefault writes the default configuration to path. An existing file
// is never overwritten.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config file already exists: %s", path)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
