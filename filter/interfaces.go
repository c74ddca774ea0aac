package filter

import (
	"context"

	"github.com/s0up4200/webmodes/qbittorrent"
)

// Filter defines the basic interface for torrent filters
type Filter interface {
	// Evaluate checks if a torrent matches the filter criteria
	Evaluate(torrent *qbittorrent.TorrentInfo) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Evaluator evaluates filters against torrents
type Evaluator interface {
	// Evaluate returns the torrents matching filter, in input order
	Evaluate(ctx context.Context, filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) ([]*qbittorrent.TorrentInfo, error)
}
