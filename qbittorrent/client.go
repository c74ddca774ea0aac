package qbittorrent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// api is the part of the go-qbittorrent client used here
type api interface {
	LoginCtx(ctx context.Context) error
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	GetTorrentPropertiesCtx(ctx context.Context, hash string) (qbittorrent.TorrentProperties, error)
	GetCategoriesCtx(ctx context.Context) (map[string]qbittorrent.Category, error)
}

// Client wraps the qBittorrent API client
type Client struct {
	client api
	logger zerolog.Logger
	opts   clientOptions
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(ctx context.Context, url, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:          url,
		Username:      username,
		Password:      password,
		TLSSkipVerify: !o.verifyCert,
		BasicUser:     o.basicUser,
		BasicPass:     o.basicPass,
		Timeout:       int(o.timeout / time.Second),
	})

	c := newClient(client, logger, o)
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	logger.Debug().Str("url", url).Msg("Connected to qBittorrent")
	return c, nil
}

func newClient(client api, logger zerolog.Logger, opts clientOptions) *Client {
	return &Client{
		client: client,
		logger: logger,
		opts:   opts,
	}
}

// Login authenticates against the WebUI
func (c *Client) Login(ctx context.Context) error {
	if err := c.client.LoginCtx(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// ListTorrents retrieves torrents with their comments. With no categories
// every torrent is returned; otherwise torrents of the given categories,
// each torrent once, in category order.
func (c *Client) ListTorrents(ctx context.Context, categories []string) ([]*TorrentInfo, error) {
	raw, err := c.collectTorrents(ctx, categories)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(raw))

	results := make([]*TorrentInfo, 0, len(raw))
	for _, t := range raw {
		results = append(results, convertTorrent(t))
	}

	if err := c.fillComments(ctx, results); err != nil {
		return nil, err
	}

	return results, nil
}

// GetTorrent retrieves a single torrent with its comment, nil if unknown
func (c *Client) GetTorrent(ctx context.Context, hash string) (*TorrentInfo, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{
		Hashes: []string{hash},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent: %w", err)
	}
	if len(torrents) == 0 {
		return nil, nil
	}

	info := convertTorrent(torrents[0])
	if err := c.fillComments(ctx, []*TorrentInfo{info}); err != nil {
		return nil, err
	}
	return info, nil
}

// ListCategories returns category names sorted case-insensitively
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := c.client.GetCategoriesCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCategoriesFailed, err)
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	return names, nil
}

func (c *Client) collectTorrents(ctx context.Context, categories []string) ([]qbittorrent.Torrent, error) {
	if len(categories) == 0 {
		torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to get torrents: %w", err)
		}
		return torrents, nil
	}

	var (
		torrents []qbittorrent.Torrent
		seen     = make(map[string]struct{})
	)
	for _, category := range categories {
		subset, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{Category: category})
		if err != nil {
			return nil, fmt.Errorf("failed to get torrents for category %q: %w", category, err)
		}
		for _, t := range subset {
			if _, dup := seen[t.Hash]; dup {
				continue
			}
			seen[t.Hash] = struct{}{}
			torrents = append(torrents, t)
		}
	}
	return torrents, nil
}

// fillComments reads the comment of every torrent from its properties.
// A failed lookup leaves that comment empty.
func (c *Client) fillComments(ctx context.Context, torrents []*TorrentInfo) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.commentWorkers)

	for _, torrent := range torrents {
		g.Go(func() error {
			props, err := c.client.GetTorrentPropertiesCtx(ctx, torrent.Hash)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn().
					Err(err).
					Str("hash", torrent.Hash).
					Str("torrent", torrent.Name).
					Msg("Failed to get torrent comment")
				return nil
			}
			torrent.Comment = props.Comment
			return nil
		})
	}

	return g.Wait()
}

func convertTorrent(t qbittorrent.Torrent) *TorrentInfo {
	category := t.Category
	if category == "" {
		category = Uncategorized
	}

	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	contentPath := t.ContentPath
	if contentPath == "" {
		contentPath = t.SavePath
	}

	return &TorrentInfo{
		Hash:        t.Hash,
		Name:        t.Name,
		Category:    category,
		State:       string(t.State),
		Progress:    t.Progress,
		Ratio:       t.Ratio,
		Size:        int64(t.Size),
		SavePath:    t.SavePath,
		ContentPath: contentPath,
		Seeds:       int64(t.NumSeeds),
		Leechs:      int64(t.NumLeechs),
		AddedOn:     time.Unix(int64(t.AddedOn), 0),
		Tags:        tags,
	}
}
