package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/s0up4200/webmodes/webmode"
)

// Outcome labels for resolution counters.
const (
	OutcomeResolved      = "resolved"
	OutcomeNoMatch       = "no_match"
	OutcomeTemplateError = "template_error"
	OutcomeError         = "error"
)

// Metrics holds the Prometheus collectors for web mode resolution.
type Metrics struct {
	resolutionsTotal *prometheus.CounterVec
	reloadsTotal     prometheus.Counter
	modesLoaded      *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg, or on the default registerer
// when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "webmodes_resolutions_total", Help: "Comment resolutions by mode and outcome"},
			[]string{"mode", "outcome"},
		),
		reloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "webmodes_reloads_total", Help: "Web mode list reloads"},
		),
		modesLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "webmodes_modes", Help: "Loaded web modes by state"},
			[]string{"state"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.resolutionsTotal, m.reloadsTotal, m.modesLoaded)

	return m
}

// Handler serves the metrics gathered by reg, or the default gatherer.
func Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveResolution counts the outcome of one Resolve call.
func (m *Metrics) ObserveResolution(res *webmode.Resolution, err error) {
	if m == nil {
		return
	}

	var te *webmode.TemplateError
	switch {
	case err == nil && res != nil:
		m.resolutionsTotal.WithLabelValues(res.Rule, OutcomeResolved).Inc()
	case errors.Is(err, webmode.ErrNoMatch):
		m.resolutionsTotal.WithLabelValues("", OutcomeNoMatch).Inc()
	case errors.As(err, &te):
		m.resolutionsTotal.WithLabelValues(te.Rule, OutcomeTemplateError).Inc()
	default:
		m.resolutionsTotal.WithLabelValues("", OutcomeError).Inc()
	}
}

// ObserveReload records a published rule list.
func (m *Metrics) ObserveReload(resolver *webmode.Resolver) {
	if m == nil || resolver == nil {
		return
	}
	m.reloadsTotal.Inc()

	invalid := len(resolver.Invalid())
	m.modesLoaded.WithLabelValues("valid").Set(float64(len(resolver.Modes()) - invalid))
	m.modesLoaded.WithLabelValues("invalid").Set(float64(invalid))
}
