package refmap

// Options contains configuration options for a Mapper.
type Options struct {
	// K is the number of neighbors consulted per query point.
	K int

	// Trees is the number of random-projection trees per ANN index.
	// More trees yield higher recall at higher build cost.
	Trees int

	// SearchK is the per-search candidate budget (0 = automatic, Trees*K).
	SearchK int

	// Seed seeds ANN index construction for reproducible runs.
	Seed int64

	// Workers bounds concurrent neighbor retrievals (0 = GOMAXPROCS).
	Workers int

	// Logger receives structured progress logging. Nil means NoopLogger.
	Logger *Logger
}

// DefaultOptions contains the default configuration options for a Mapper.
var DefaultOptions = Options{
	K:       30,
	Trees:   10,
	SearchK: 0,
	Seed:    1,
	Workers: 0,
}

// WithK sets the number of neighbors consulted per query point.
func WithK(k int) func(o *Options) {
	return func(o *Options) {
		o.K = k
	}
}

// WithTrees sets the number of random-projection trees per ANN index.
func WithTrees(trees int) func(o *Options) {
	return func(o *Options) {
		o.Trees = trees
	}
}

// WithSeed sets the ANN construction seed.
func WithSeed(seed int64) func(o *Options) {
	return func(o *Options) {
		o.Seed = seed
	}
}

// WithWorkers bounds the number of concurrent neighbor retrievals.
func WithWorkers(workers int) func(o *Options) {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}
