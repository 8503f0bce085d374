// Package annoy provides a random-projection forest index for approximate
// nearest neighbor search under angular distance.
//
// The index has a two-state lifecycle: points are inserted with Add while the
// index is in the building state, Build finalizes the forest, and only then
// does Search become available. The state machine rejects Add after Build and
// Search before Build, so lifecycle misuse surfaces as an error instead of a
// silent wrong answer. Once built the index is immutable and safe for
// concurrent searches without locking.
package annoy

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/refbio/refmap/distance"
	"github.com/refbio/refmap/index"
)

// Compile-time check to ensure Index satisfies the index interfaces.
var _ index.Builder = (*Index)(nil)

// Options contains configuration options for the forest.
type Options struct {
	// Trees is the number of random-projection trees to build. More trees
	// yield higher recall at higher build time and memory.
	Trees int

	// LeafSize is the maximum number of points held in a single leaf.
	LeafSize int

	// SearchK is the candidate budget per search. Zero means automatic
	// (Trees * k), matching the usual annoy heuristic.
	SearchK int

	// Seed seeds the tree construction. Builds with equal seeds and equal
	// insertion order produce identical forests, which keeps regression
	// tests reproducible.
	Seed int64
}

// DefaultOptions contains the default configuration options for the forest.
var DefaultOptions = Options{
	Trees:    10,
	LeafSize: 16,
	SearchK:  0,
	Seed:     1,
}

// item is an indexed point. The vector is stored L2-normalized so that
// angular distance reduces to 1 - dot.
type item struct {
	id  uint32
	vec []float32
}

// treeNode is a node in one projection tree. Interior nodes carry a split
// hyperplane normal; leaves carry item positions.
type treeNode struct {
	normal []float32
	left   *treeNode
	right  *treeNode
	items  []uint32 // positions into Index.items, leaf only
}

func (n *treeNode) leaf() bool { return n.normal == nil }

// Index is a forest of random-projection trees over angular distance.
type Index struct {
	dimension int
	opts      Options

	mu    sync.Mutex // serializes Add and Build
	built atomic.Bool
	items []item
	byID  map[uint32]struct{}
	trees []*treeNode
}

// New creates a new forest index for vectors of the given dimension.
func New(dimension int, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimension}
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultOptions.Trees
	}
	if opts.LeafSize <= 1 {
		opts.LeafSize = DefaultOptions.LeafSize
	}

	return &Index{
		dimension: dimension,
		opts:      opts,
		byID:      make(map[uint32]struct{}),
	}, nil
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.items)
}

// Add inserts a vector under a caller-chosen id. Ids need not be contiguous.
// Add fails once the index has been built.
func (idx *Index) Add(id uint32, v []float32) error {
	if idx.built.Load() {
		return index.ErrIndexBuilt
	}
	if len(v) != idx.dimension {
		return &index.ErrDimensionMismatch{Expected: idx.dimension, Actual: len(v)}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.built.Load() {
		return index.ErrIndexBuilt
	}
	if _, ok := idx.byID[id]; ok {
		return &index.ErrDuplicateID{ID: id}
	}

	vec, ok := distance.NormalizeL2Copy(v)
	if !ok {
		// Zero-norm vectors have no direction; store as-is, they rank last
		// against every query.
		vec = make([]float32, len(v))
	}

	idx.byID[id] = struct{}{}
	idx.items = append(idx.items, item{id: id, vec: vec})

	return nil
}

// Build finalizes the forest. Trees are constructed in parallel, each from
// its own deterministic seed, and Build blocks until the index is
// query-ready. After Build the index is read-only.
func (idx *Index) Build() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.built.Load() {
		return index.ErrIndexBuilt
	}
	if len(idx.items) == 0 {
		return index.ErrEmptyIndex
	}

	trees := make([]*treeNode, idx.opts.Trees)

	var g errgroup.Group
	for t := range trees {
		t := t
		g.Go(func() error {
			rng := rand.New(rand.NewSource(idx.opts.Seed + int64(t))) //nolint:gosec

			positions := make([]uint32, len(idx.items))
			for i := range positions {
				positions[i] = uint32(i)
			}

			trees[t] = idx.buildTree(rng, positions)
			return nil
		})
	}

	_ = g.Wait()

	idx.trees = trees
	idx.built.Store(true)

	return nil
}

// splitAttempts bounds how often a split is retried before the subset is
// declared unsplittable and kept as an oversized leaf (all-duplicate inputs).
const splitAttempts = 3

func (idx *Index) buildTree(rng *rand.Rand, positions []uint32) *treeNode {
	if len(positions) <= idx.opts.LeafSize {
		return &treeNode{items: positions}
	}

	for attempt := 0; attempt < splitAttempts; attempt++ {
		normal, ok := idx.pickHyperplane(rng, positions)
		if !ok {
			continue
		}

		var left, right []uint32
		for _, p := range positions {
			if distance.Dot(idx.items[p].vec, normal) >= 0 {
				right = append(right, p)
			} else {
				left = append(left, p)
			}
		}

		if len(left) == 0 || len(right) == 0 {
			continue
		}

		return &treeNode{
			normal: normal,
			left:   idx.buildTree(rng, left),
			right:  idx.buildTree(rng, right),
		}
	}

	return &treeNode{items: positions}
}

// pickHyperplane samples two distinct points and returns the normalized
// difference vector as the split normal.
func (idx *Index) pickHyperplane(rng *rand.Rand, positions []uint32) ([]float32, bool) {
	a := positions[rng.Intn(len(positions))]
	b := positions[rng.Intn(len(positions))]
	if a == b {
		return nil, false
	}

	normal := make([]float32, idx.dimension)
	for i := range normal {
		normal[i] = idx.items[a].vec[i] - idx.items[b].vec[i]
	}

	if !distance.NormalizeL2InPlace(normal) {
		return nil, false
	}

	return normal, true
}

// Search returns the approximate k nearest neighbors of q under angular
// distance, nearest first. If fewer than k points are indexed, all of them
// are returned. Safe for concurrent use once the index is built.
func (idx *Index) Search(q []float32, k int) ([]index.SearchResult, error) {
	if !idx.built.Load() {
		return nil, index.ErrIndexNotBuilt
	}
	if k < 1 {
		return nil, index.ErrInvalidK
	}
	if len(q) != idx.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dimension, Actual: len(q)}
	}

	query, ok := distance.NormalizeL2Copy(q)
	if !ok {
		query = make([]float32, len(q))
	}

	searchK := idx.opts.SearchK
	if searchK <= 0 {
		searchK = idx.opts.Trees * k
	}
	if searchK < k {
		searchK = k
	}

	candidates := idx.collectCandidates(query, searchK)

	// Exact angular distance over the candidate set, keeping the k best in
	// a bounded max-heap.
	results := &resultQueue{}
	heap.Init(results)

	for _, p := range candidates {
		d := distance.Angular(query, idx.items[p].vec)
		if results.Len() < k {
			heap.Push(results, index.SearchResult{ID: idx.items[p].id, Distance: d})
		} else if d < results.items[0].Distance {
			results.items[0] = index.SearchResult{ID: idx.items[p].id, Distance: d}
			heap.Fix(results, 0)
		}
	}

	out := make([]index.SearchResult, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(index.SearchResult)
	}

	return out, nil
}

// collectCandidates traverses the forest best-first and gathers at least
// searchK distinct item positions (or every position, whichever is smaller).
func (idx *Index) collectCandidates(query []float32, searchK int) []uint32 {
	pq := &nodeQueue{}
	heap.Init(pq)
	for _, root := range idx.trees {
		heap.Push(pq, nodeQueueItem{node: root, margin: float32(math.Inf(1))})
	}

	visited := bitset.New(uint(len(idx.items)))
	candidates := make([]uint32, 0, searchK)

	for pq.Len() > 0 && len(candidates) < searchK {
		top := heap.Pop(pq).(nodeQueueItem)
		node := top.node

		if node.leaf() {
			for _, p := range node.items {
				if !visited.Test(uint(p)) {
					visited.Set(uint(p))
					candidates = append(candidates, p)
				}
			}
			continue
		}

		margin := distance.Dot(query, node.normal)
		heap.Push(pq, nodeQueueItem{node: node.right, margin: min(top.margin, margin)})
		heap.Push(pq, nodeQueueItem{node: node.left, margin: min(top.margin, -margin)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	return candidates
}
