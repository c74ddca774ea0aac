package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

var (
	resolveStdin  bool
	resolveJSON   bool
	resolveHashes []string
)

// torrentGetter looks up a single torrent, nil when the hash is unknown
type torrentGetter interface {
	GetTorrent(ctx context.Context, hash string) (*qbittorrent.TorrentInfo, error)
}

// connectTorrents is replaced in tests
var connectTorrents = func(ctx context.Context) (torrentGetter, error) {
	client, err := newQBClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [comment...]",
	Short: "Resolve torrent comments to detail page URLs",
	Long: `Resolve each comment given as an argument, or one comment per line from
standard input with --stdin, and print the detail page URL and cookies of the
first matching web mode.

With --hash the comment is read from the qBittorrent torrent with that hash.`,
	PreRunE: initializeApp,
	RunE:    runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveStdin, "stdin", false, "read comments from standard input, one per line")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print results as JSON lines")
	resolveCmd.Flags().StringSliceVar(&resolveHashes, "hash", nil, "resolve the comment of the torrent with this hash")
}

type resolveOutput struct {
	Comment string          `json:"comment"`
	URL     string          `json:"url,omitempty"`
	Rule    string          `json:"rule,omitempty"`
	Cookies webmode.Cookies `json:"cookies,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	comments := args
	if resolveStdin {
		lines, err := readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read comments: %w", err)
		}
		comments = append(comments, lines...)
	}
	if len(resolveHashes) > 0 {
		fromTorrents, err := torrentComments(cmd.Context(), resolveHashes)
		if err != nil {
			return err
		}
		comments = append(comments, fromTorrents...)
	}
	if len(comments) == 0 {
		return fmt.Errorf("no comment given (pass one as an argument, use --stdin or --hash)")
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)

	var (
		failed  int
		lastErr error
	)
	for _, comment := range comments {
		res, err := resolver.Resolve(comment)
		if err != nil {
			failed++
			lastErr = err
			logResolveError(comment, err)
		}

		if resolveJSON {
			o := resolveOutput{Comment: comment}
			if err != nil {
				o.Error = err.Error()
			} else {
				o.URL, o.Rule, o.Cookies = res.URL, res.Rule, res.Cookies
			}
			if err := enc.Encode(o); err != nil {
				return err
			}
			continue
		}

		if err != nil {
			continue
		}
		printResolution(out, res, len(comments) > 1, comment)
	}

	if failed == len(comments) {
		if len(comments) == 1 {
			return lastErr
		}
		return fmt.Errorf("none of %d comments could be resolved", len(comments))
	}
	return nil
}

// torrentComments fetches the comment of each torrent in hashes
func torrentComments(ctx context.Context, hashes []string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	getter, err := connectTorrents(ctx)
	if err != nil {
		return nil, err
	}

	comments := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		hash = strings.ToLower(strings.TrimSpace(hash))
		t, err := getter.GetTorrent(ctx, hash)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("torrent %s not found", hash)
		}
		if !t.HasComment() {
			logger.Warn().Str("hash", hash).Str("name", t.Name).Msg("Torrent has no comment")
		}
		comments = append(comments, t.Comment)
	}
	return comments, nil
}

func printResolution(w io.Writer, res *webmode.Resolution, withComment bool, comment string) {
	if withComment {
		fmt.Fprintf(w, "%s\n  ", comment)
	}
	fmt.Fprintf(w, "%s [%s]\n", res.URL, res.Rule)
	if len(res.Cookies) > 0 {
		if withComment {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "Cookie: %s\n", res.Cookies.String())
	}
}

func logResolveError(comment string, err error) {
	var te *webmode.TemplateError
	switch {
	case errors.Is(err, webmode.ErrNoMatch):
		logger.Warn().Str("comment", comment).Msg("No web mode matched")
	case errors.As(err, &te):
		logger.Error().Str("comment", comment).Str("mode", te.Rule).Str("identifier", te.Identifier).Msg(te.Reason)
	default:
		logger.Error().Err(err).Str("comment", comment).Msg("Failed to resolve comment")
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
