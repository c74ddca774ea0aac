package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/webmodes/qbittorrent"
)

var _ Evaluator = (*ConcurrentEvaluator)(nil)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the batch size for chunked processing
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator splits large torrent lists into chunks evaluated in
// parallel
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate evaluates a single filter against all torrents
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) ([]*qbittorrent.TorrentInfo, error) {
	if len(torrents) == 0 {
		return []*qbittorrent.TorrentInfo{}, nil
	}

	// For small lists, don't bother with concurrency
	if len(torrents) < e.batchSize {
		return evaluateSequential(filter, torrents), nil
	}

	return e.evaluateConcurrent(ctx, filter, torrents)
}

func evaluateSequential(filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) []*qbittorrent.TorrentInfo {
	matches := make([]*qbittorrent.TorrentInfo, 0, len(torrents)/4)
	for _, torrent := range torrents {
		if filter.Evaluate(torrent) {
			matches = append(matches, torrent)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) ([]*qbittorrent.TorrentInfo, error) {
	chunkSize := max(len(torrents)/e.workerCount, e.batchSize)
	chunkCount := (len(torrents) + chunkSize - 1) / chunkSize

	// one slot per chunk keeps the input order
	results := make([][]*qbittorrent.TorrentInfo, chunkCount)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := 0; i < chunkCount; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(torrents))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateSequential(filter, torrents[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, chunk := range results {
		total += len(chunk)
	}
	matches := make([]*qbittorrent.TorrentInfo, 0, total)
	for _, chunk := range results {
		matches = append(matches, chunk...)
	}

	return matches, nil
}
