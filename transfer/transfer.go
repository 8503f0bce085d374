// Package transfer assigns categorical labels to query samples from their
// approximate nearest reference neighbors in a shared embedding space.
//
// Two algorithms are provided. KNN is a one-sided majority vote over the k
// nearest reference neighbors of each query point. MNN is anchor-based: a
// query point and a reference point are mutual nearest neighbors when each
// appears in the other's k-neighbor list, and the confidence of a prediction
// is the fraction of a query point's reference neighbors that are mutual.
// Query points with no mutual neighbor fall back to their single nearest
// reference neighbor at a fixed low confidence.
//
// Both algorithms are read-only over their inputs, return exactly one result
// per query row, and abort the whole batch on any error: skipping individual
// samples would misalign the result sequence against the query rows.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/refbio/refmap/index"
	"github.com/refbio/refmap/index/annoy"
)

// FallbackConfidence is assigned to predictions with no mutual-neighbor
// anchor. It marks an unanchored, low-trust label, distinguishable from the
// lowest anchored confidence 1/k.
const FallbackConfidence = 0.01

// Result is the predicted label and confidence for one query sample.
// KNN results carry a confidence of 0 (the variant does not score).
type Result struct {
	Label      string
	Confidence float64
}

// ErrMissingLabel is a named error type for a neighbor id with no
// corresponding label. It indicates the reference embedding and the label
// set drifted apart upstream and is never silently defaulted.
type ErrMissingLabel struct {
	ID uint32
}

// Error returns the error message for a missing label.
func (e *ErrMissingLabel) Error() string {
	return fmt.Sprintf("no label for reference sample %d", e.ID)
}

// Options contains configuration options for the transfer engine.
type Options struct {
	// K is the number of neighbors consulted per point.
	K int

	// Trees is the number of random-projection trees per index.
	Trees int

	// SearchK is the per-search candidate budget (0 = automatic).
	SearchK int

	// Seed seeds index construction, keeping runs reproducible.
	Seed int64

	// Workers bounds the number of concurrent neighbor retrievals.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives progress logging. Nil disables logging.
	Logger *slog.Logger

	// OnProgress, when non-nil, is called once per completed neighbor
	// retrieval, possibly from multiple goroutines. KNN retrieves one list
	// per query point; MNN retrieves one list per query point and one per
	// reference point.
	OnProgress func()
}

// DefaultOptions contains the default configuration options for the engine.
var DefaultOptions = Options{
	K:       30,
	Trees:   10,
	SearchK: 0,
	Seed:    1,
	Workers: 0,
}

// Engine runs label transfer between a reference and a query embedding.
type Engine struct {
	opts Options
}

// NewEngine creates a transfer engine.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.K < 1 {
		opts.K = DefaultOptions.K
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{opts: opts}
}

// KNN transfers labels by one-sided k-nearest-neighbor majority vote.
//
// The predicted label is the most frequent label among the query point's k
// nearest reference neighbors. On a tied vote, the label whose first
// occurrence appears earliest in the neighbor list wins; the neighbor list is
// ordered nearest first, so this is an explicit (if arbitrary) nearest-first
// tie-break.
func (e *Engine) KNN(ctx context.Context, refEmbedding [][]float32, labels []string, queryEmbedding [][]float32) ([]Result, error) {
	if err := validateInputs(refEmbedding, labels); err != nil {
		return nil, err
	}
	if len(queryEmbedding) == 0 {
		return []Result{}, nil
	}

	refIndex, err := e.buildIndex(refEmbedding, e.opts.Seed)
	if err != nil {
		return nil, err
	}

	e.opts.Logger.DebugContext(ctx, "knn transfer",
		"reference", len(refEmbedding), "query", len(queryEmbedding), "k", e.opts.K)

	results := make([]Result, len(queryEmbedding))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, q := range queryEmbedding {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			neighbors, err := refIndex.Search(q, e.opts.K)
			if err != nil {
				return err
			}

			label, err := majorityVote(neighbors, labels)
			if err != nil {
				return err
			}

			results[i] = Result{Label: label}
			if e.opts.OnProgress != nil {
				e.opts.OnProgress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// MNN transfers labels through mutual-nearest-neighbor anchors.
//
// For each query point the k nearest reference neighbors are scanned in
// retrieval order; every mutual neighbor overwrites the predicted label, so
// the last mutual neighbor in the list wins. This preserves the observed
// behavior of the original algorithm (the scan does not break on the first
// match); changing it to first-match or majority-of-mutuals would alter
// predictions and must not happen silently. Confidence is mutualCount/k, or
// FallbackConfidence when the point has no mutual neighbor and the single
// nearest reference neighbor's label is used instead.
func (e *Engine) MNN(ctx context.Context, refEmbedding [][]float32, labels []string, queryEmbedding [][]float32) ([]Result, error) {
	if err := validateInputs(refEmbedding, labels); err != nil {
		return nil, err
	}
	if len(queryEmbedding) == 0 {
		return []Result{}, nil
	}

	// The two indexes are independent; build them concurrently.
	var refIndex, queryIndex *annoy.Index
	{
		var g errgroup.Group
		g.Go(func() error {
			var err error
			refIndex, err = e.buildIndex(refEmbedding, e.opts.Seed)
			return err
		})
		g.Go(func() error {
			var err error
			queryIndex, err = e.buildIndex(queryEmbedding, e.opts.Seed+1)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	e.opts.Logger.DebugContext(ctx, "mnn transfer",
		"reference", len(refEmbedding), "query", len(queryEmbedding), "k", e.opts.K)

	refNeighbors, err := e.neighborLists(ctx, refIndex, queryEmbedding)
	if err != nil {
		return nil, err
	}

	queryNeighbors, err := e.neighborLists(ctx, queryIndex, refEmbedding)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(queryEmbedding))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range queryEmbedding {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := e.anchorResult(uint32(i), refNeighbors[i], queryNeighbors, labels)
			if err != nil {
				return err
			}

			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// anchorResult resolves one query point from its reference neighbor list and
// the reference points' query neighbor lists.
func (e *Engine) anchorResult(queryID uint32, refNeighbors []uint32, queryNeighbors [][]uint32, labels []string) (Result, error) {
	if len(refNeighbors) == 0 {
		return Result{}, index.ErrEmptyIndex
	}

	var label string
	mutualCount := 0

	for _, j := range refNeighbors {
		if int(j) >= len(labels) {
			return Result{}, &ErrMissingLabel{ID: j}
		}
		if slices.Contains(queryNeighbors[j], queryID) {
			mutualCount++
			label = labels[j] // last mutual neighbor wins
		}
	}

	if mutualCount == 0 {
		return Result{Label: labels[refNeighbors[0]], Confidence: FallbackConfidence}, nil
	}

	return Result{Label: label, Confidence: float64(mutualCount) / float64(e.opts.K)}, nil
}

// neighborLists retrieves the id lists of the k nearest indexed points for
// every query row, in parallel.
func (e *Engine) neighborLists(ctx context.Context, idx *annoy.Index, queries [][]float32) ([][]uint32, error) {
	lists := make([][]uint32, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			neighbors, err := idx.Search(q, e.opts.K)
			if err != nil {
				return err
			}

			ids := make([]uint32, len(neighbors))
			for n, sr := range neighbors {
				ids[n] = sr.ID
			}

			lists[i] = ids
			if e.opts.OnProgress != nil {
				e.opts.OnProgress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lists, nil
}

// buildIndex indexes embedding rows under dense ids 0..n-1.
func (e *Engine) buildIndex(embedding [][]float32, seed int64) (*annoy.Index, error) {
	if len(embedding) == 0 {
		return nil, index.ErrEmptyIndex
	}

	idx, err := annoy.New(len(embedding[0]), func(o *annoy.Options) {
		o.Trees = e.opts.Trees
		o.SearchK = e.opts.SearchK
		o.Seed = seed
	})
	if err != nil {
		return nil, err
	}

	for i, v := range embedding {
		if err := idx.Add(uint32(i), v); err != nil {
			return nil, err
		}
	}

	if err := idx.Build(); err != nil {
		return nil, err
	}

	return idx, nil
}

// majorityVote picks the most frequent label in the neighbor list, breaking
// ties by earliest first occurrence.
func majorityVote(neighbors []index.SearchResult, labels []string) (string, error) {
	if len(neighbors) == 0 {
		return "", index.ErrEmptyIndex
	}

	counts := make(map[string]int, len(neighbors))
	firstSeen := make(map[string]int, len(neighbors))

	for n, sr := range neighbors {
		if int(sr.ID) >= len(labels) {
			return "", &ErrMissingLabel{ID: sr.ID}
		}

		label := labels[sr.ID]
		counts[label]++
		if _, ok := firstSeen[label]; !ok {
			firstSeen[label] = n
		}
	}

	var best string
	bestCount := -1
	for label, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount = label, count
		case count == bestCount && firstSeen[label] < firstSeen[best]:
			best = label
		}
	}

	return best, nil
}

func validateInputs(refEmbedding [][]float32, labels []string) error {
	if len(refEmbedding) != len(labels) {
		return fmt.Errorf("transfer: %d labels for %d reference rows", len(labels), len(refEmbedding))
	}
	return nil
}
