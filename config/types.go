package config

import (
	"time"

	"github.com/s0up4200/webmodes/webmode"
)

// Config represents the complete configuration structure
type Config struct {
	QBittorrent   QBittorrentConfig `mapstructure:"qbittorrent" yaml:"qbittorrent"`
	WebModes      []webmode.Config  `mapstructure:"web_modes" yaml:"web_modes"`
	ActiveWebMode string            `mapstructure:"active_web_mode" yaml:"active_web_mode"`
	Filter        FilterConfig      `mapstructure:"filter" yaml:"filter"`
	Server        ServerConfig      `mapstructure:"server" yaml:"server"`
	Logging       LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// QBittorrentConfig holds qBittorrent Web API connection details
type QBittorrentConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	VerifySSL      bool          `mapstructure:"verify_ssl" yaml:"verify_ssl"`
	BasicUser      string        `mapstructure:"basic_user" yaml:"basic_user,omitempty"`
	BasicPass      string        `mapstructure:"basic_pass" yaml:"basic_pass,omitempty"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CommentWorkers int           `mapstructure:"comment_workers" yaml:"comment_workers"`
	Categories     []string      `mapstructure:"categories" yaml:"categories,omitempty"`
}

// FilterConfig contains torrent filter expressions
type FilterConfig struct {
	Default string            `mapstructure:"default" yaml:"default,omitempty"`
	Presets map[string]string `mapstructure:"presets" yaml:"presets,omitempty"`
}

// ServerConfig contains settings for the HTTP API
type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Color  bool   `mapstructure:"color" yaml:"color"`
}
