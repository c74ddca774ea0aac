package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/s0up4200/webmodes/config"
	"github.com/s0up4200/webmodes/filter"
	"github.com/s0up4200/webmodes/metrics"
	"github.com/s0up4200/webmodes/server"
)

var (
	listenAddr string
	noTorrents bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	Long: `Start the HTTP API used by the embedded browser to resolve comments.

The web mode list is reloaded whenever the configuration file changes.`,
	PreRunE: initializeApp,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.address)")
	serveCmd.Flags().BoolVar(&noTorrents, "no-torrents", false, "do not connect to qBittorrent")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []server.Option

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		m = metrics.NewMetrics(reg)
		m.ObserveReload(resolver)
		opts = append(opts, server.WithMetrics(m, reg))
	}

	if !noTorrents {
		client, err := newQBClient(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("qBittorrent unavailable, serving without torrents")
		} else {
			compiler := filter.NewExprCompiler(filter.WithCache(64), filter.WithResolver(resolver))
			opts = append(opts, server.WithTorrents(client, compiler))
		}
	}

	flagPreferred := ""
	if cmd.Flags().Changed("preferred") {
		flagPreferred = preferred
	}
	reloader := newModeReloader(resolver, m, logger, flagPreferred, cfg.ActiveWebMode)

	_, err := config.Watch(cfgFile, logger, reloader.apply)
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}

	addr := cfg.Server.Address
	if listenAddr != "" {
		addr = listenAddr
	}

	return server.New(resolver, logger, opts...).Run(ctx, addr)
}
