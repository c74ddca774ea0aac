package config

import (
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Watch loads the configuration and calls onChange with every valid
// configuration written to the file afterwards. Invalid edits are logged and
// skipped, so the last good configuration stays in effect.
func Watch(configPath string, logger zerolog.Logger, onChange func(*Config)) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			logger.Error().Err(err).Str("file", e.Name).Msg("Ignoring invalid configuration change")
			return
		}
		logger.Info().Str("file", e.Name).Msg("Configuration reloaded")
		onChange(next)
	})
	v.WatchConfig()

	return cfg, nil
}
