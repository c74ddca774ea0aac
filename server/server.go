package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/s0up4200/webmodes/filter"
	"github.com/s0up4200/webmodes/metrics"
	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

// TorrentSource lists torrents for the torrents endpoints
type TorrentSource interface {
	ListTorrents(ctx context.Context, categories []string) ([]*qbittorrent.TorrentInfo, error)
	// GetTorrent returns nil when hash is unknown
	GetTorrent(ctx context.Context, hash string) (*qbittorrent.TorrentInfo, error)
}

// Option configures a Server
type Option func(*Server)

// WithTorrents enables GET /api/torrents backed by source
func WithTorrents(source TorrentSource, compiler filter.Compiler) Option {
	return func(s *Server) {
		s.torrents = source
		s.compiler = compiler
	}
}

// WithMetrics records resolutions on m and serves reg at /metrics
func WithMetrics(m *metrics.Metrics, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.registry = reg
		s.serveMetrics = true
	}
}

// Server exposes the resolver over HTTP
type Server struct {
	resolver *webmode.Resolver
	logger   zerolog.Logger

	torrents     TorrentSource
	compiler     filter.Compiler
	metrics      *metrics.Metrics
	registry     *prometheus.Registry
	serveMetrics bool
}

// New creates a server around resolver
func New(resolver *webmode.Resolver, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		resolver: resolver,
		logger:   logger.With().Str("component", "server").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compiler == nil {
		s.compiler = filter.NewExprCompiler(filter.WithCache(64), filter.WithResolver(resolver))
	}
	return s
}

// Router returns the HTTP handler with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Get("/modes", s.handleModes)
		r.Put("/modes/preferred", s.handleSetPreferred)
		r.Get("/torrents", s.handleTorrents)
		r.Get("/torrents/{hash}", s.handleTorrent)
	})

	if s.serveMetrics {
		r.Handle("/metrics", metrics.Handler(s.registry))
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request handled")
	})
}
