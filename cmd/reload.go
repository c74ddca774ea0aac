package cmd

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/webmodes/config"
	"github.com/s0up4200/webmodes/metrics"
	"github.com/s0up4200/webmodes/webmode"
)

// modeReloader applies config file changes to a running resolver. The
// preferred mode follows active_web_mode from the file unless it was pinned
// by --preferred or changed at runtime through the API.
type modeReloader struct {
	resolver *webmode.Resolver
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	flagPreferred string
	filePreferred string
}

func newModeReloader(resolver *webmode.Resolver, m *metrics.Metrics, logger zerolog.Logger, flagPreferred, filePreferred string) *modeReloader {
	return &modeReloader{
		resolver:      resolver,
		metrics:       m,
		logger:        logger,
		flagPreferred: flagPreferred,
		filePreferred: strings.TrimSpace(filePreferred),
	}
}

func (r *modeReloader) apply(next *config.Config) {
	active := strings.TrimSpace(next.ActiveWebMode)
	fileActive := active
	switch current := r.resolver.Preferred(); {
	case r.flagPreferred != "":
		active = r.flagPreferred
	case current != r.filePreferred:
		active = current
	}
	r.filePreferred = fileActive

	r.resolver.Reload(webmode.NewWebModes(next.WebModes), active)
	r.metrics.ObserveReload(r.resolver)

	r.logger.Info().
		Int("modes", len(next.WebModes)).
		Str("preferred", active).
		Msg("Web modes reloaded")
}
