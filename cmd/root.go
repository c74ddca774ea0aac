package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/webmodes/config"
	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

var (
	cfgFile  string
	cfg      *config.Config
	logger   zerolog.Logger
	resolver *webmode.Resolver

	// Command flags
	preferred string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "webmodes",
	Short: "Resolve torrent comments to their tracker detail pages",
	Long: `webmodes turns the comment embedded in a torrent into the URL of the
torrent's detail page on its tracker, together with the cookies needed to
open it.

Web modes are tried in configured order and the first one whose pattern
occurs in the comment wins.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&preferred, "preferred", "", "try this web mode first (overrides active_web_mode)")
}

// initializeApp loads the configuration and builds the resolver
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	active := cfg.ActiveWebMode
	if cmd.Flags().Changed("preferred") {
		active = preferred
	}

	resolver = webmode.NewResolver(webmode.NewWebModes(cfg.WebModes), logger, webmode.WithPreferred(active))

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, colored only on a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// newQBClient connects to qBittorrent with the configured credentials
func newQBClient(ctx context.Context) (*qbittorrent.Client, error) {
	qb := cfg.QBittorrent

	opts := []qbittorrent.Option{
		qbittorrent.WithTimeout(qb.Timeout),
		qbittorrent.WithCommentWorkers(qb.CommentWorkers),
	}
	if !qb.VerifySSL {
		opts = append(opts, qbittorrent.WithInsecureSkipVerify())
	}
	if qb.BasicUser != "" {
		opts = append(opts, qbittorrent.WithBasicAuth(qb.BasicUser, qb.BasicPass))
	}

	client, err := qbittorrent.NewClient(ctx, qb.URL, qb.Username, qb.Password, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}
	return client, nil
}
