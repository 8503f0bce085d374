package refmap

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/matrix"
	"github.com/refbio/refmap/projection"
	"github.com/refbio/refmap/reference"
	"github.com/refbio/refmap/transfer"
)

// Mapper projects query feature matrices into a reference embedding space
// and transfers reference labels to the projected points. A Mapper is
// read-only over its reference and safe for concurrent use.
type Mapper struct {
	ref    *reference.Reference
	engine *transfer.Engine
	opts   Options
	logger *Logger
}

// New creates a Mapper over a validated reference.
func New(ref *reference.Reference, optFns ...func(o *Options)) (*Mapper, error) {
	if ref == nil {
		return nil, fmt.Errorf("refmap: nil reference")
	}

	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.K < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, opts.K)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	engine := transfer.NewEngine(func(o *transfer.Options) {
		o.K = opts.K
		o.Trees = opts.Trees
		o.SearchK = opts.SearchK
		o.Seed = opts.Seed
		o.Workers = opts.Workers
		o.Logger = opts.Logger.Logger
	})

	return &Mapper{
		ref:    ref,
		engine: engine,
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// Reference returns the mapper's reference.
func (m *Mapper) Reference() *reference.Reference { return m.ref }

// Project maps query features (samples x features) into the reference
// embedding space. When the reference carries per-feature means the features
// are centered with them first; the input matrix is never mutated. The
// feature columns must follow the same global ordering as the basis rows.
func (m *Mapper) Project(queryFeatures *mat.Dense) (*mat.Dense, error) {
	if queryFeatures == nil {
		return nil, fmt.Errorf("refmap: nil query features")
	}

	_, f := queryFeatures.Dims()
	if f != m.ref.Basis().Features() {
		return nil, &ErrDimensionMismatch{Expected: m.ref.Basis().Features(), Actual: f}
	}

	features := queryFeatures
	if means := m.ref.Means(); means != nil {
		features = mat.DenseCopyOf(queryFeatures)
		if err := projection.CenterInPlace(features, means); err != nil {
			return nil, translateError(err)
		}
	}

	embedding, err := projection.Project(features, m.ref.Basis())
	if err != nil {
		return nil, translateError(err)
	}

	n, _ := embedding.Dims()
	m.logger.WithSamples(m.ref.Len(), n).Debug("projected query features",
		"components", m.ref.Basis().Components())

	return embedding, nil
}

// TransferKNN transfers labels to the query embedding by one-sided
// k-nearest-neighbor majority vote. Results carry no confidence score.
func (m *Mapper) TransferKNN(ctx context.Context, queryEmbedding *mat.Dense) ([]transfer.Result, error) {
	refRows, queryRows, err := m.embeddingRows(queryEmbedding)
	if err != nil {
		return nil, err
	}

	results, err := m.engine.KNN(ctx, refRows, m.ref.Labels(), queryRows)
	if err != nil {
		return nil, translateError(err)
	}

	return results, nil
}

// TransferMNN transfers labels to the query embedding through
// mutual-nearest-neighbor anchors with a nearest-neighbor fallback.
func (m *Mapper) TransferMNN(ctx context.Context, queryEmbedding *mat.Dense) ([]transfer.Result, error) {
	refRows, queryRows, err := m.embeddingRows(queryEmbedding)
	if err != nil {
		return nil, err
	}

	results, err := m.engine.MNN(ctx, refRows, m.ref.Labels(), queryRows)
	if err != nil {
		return nil, translateError(err)
	}

	return results, nil
}

// VerifyProjection re-projects the reference's own source features and
// checks that the result reproduces the stored reference embedding within
// tol. This validates that the caller's centering and scaling conventions
// match the ones the reference embedding was produced with.
func (m *Mapper) VerifyProjection(referenceFeatures *mat.Dense, tol float64) error {
	projected, err := m.Project(referenceFeatures)
	if err != nil {
		return err
	}

	want := m.ref.Embedding()
	pr, pc := projected.Dims()
	wr, wc := want.Dims()
	if pr != wr || pc != wc {
		return &ErrDimensionMismatch{Expected: wr * wc, Actual: pr * pc}
	}

	if !mat.EqualApprox(projected, want, tol) {
		return fmt.Errorf("refmap: projection deviates from reference embedding by more than %g", tol)
	}

	return nil
}

// embeddingRows validates the query embedding shape against the reference
// and converts both embeddings to row vectors for the transfer engine.
func (m *Mapper) embeddingRows(queryEmbedding *mat.Dense) ([][]float32, [][]float32, error) {
	if queryEmbedding == nil {
		return nil, nil, fmt.Errorf("refmap: nil query embedding")
	}

	_, qc := queryEmbedding.Dims()
	if qc != m.ref.Basis().Components() {
		return nil, nil, &ErrDimensionMismatch{Expected: m.ref.Basis().Components(), Actual: qc}
	}

	return matrix.Rows32(m.ref.Embedding()), matrix.Rows32(queryEmbedding), nil
}
