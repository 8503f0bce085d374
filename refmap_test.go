package refmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/matrix"
	"github.com/refbio/refmap/projection"
	"github.com/refbio/refmap/reference"
	"github.com/refbio/refmap/testutil"
	"github.com/refbio/refmap/transfer"
)

// fixture builds a reference whose embedding was produced by centering the
// reference features with their own column means and projecting through the
// basis, i.e. the convention Mapper.Project reproduces.
type fixture struct {
	ref         *reference.Reference
	refFeatures *mat.Dense
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rng := testutil.NewRNG(61)

	// Two feature-space clusters, 6 features.
	centroidA := []float32{5, 0, 0, 1, 0, 0}
	centroidB := []float32{0, 5, 0, 0, 1, 0}
	rows := append(
		rng.ClusterVectors(15, centroidA, 0.2),
		rng.ClusterVectors(15, centroidB, 0.2)...,
	)

	refFeatures, err := matrix.FromRows32(rows)
	require.NoError(t, err)

	// Basis spanning the three informative directions.
	loadings := mat.NewDense(6, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
	})
	basis, err := reference.NewBasis(loadings, []float64{3, 2, 1})
	require.NoError(t, err)

	n, f := refFeatures.Dims()
	means := make([]float64, f)
	for j := 0; j < f; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += refFeatures.At(i, j)
		}
		means[j] = sum / float64(n)
	}

	centered := mat.DenseCopyOf(refFeatures)
	require.NoError(t, projection.CenterInPlace(centered, means))

	refEmbedding, err := projection.Project(centered, basis)
	require.NoError(t, err)

	labels := make([]string, 30)
	for i := range labels {
		if i < 15 {
			labels[i] = "alpha"
		} else {
			labels[i] = "beta"
		}
	}

	ref, err := reference.New(basis, refEmbedding, labels, means)
	require.NoError(t, err)

	return &fixture{ref: ref, refFeatures: refFeatures}
}

func TestNew(t *testing.T) {
	fx := newFixture(t)

	t.Run("Defaults", func(t *testing.T) {
		m, err := New(fx.ref)
		require.NoError(t, err)
		assert.Equal(t, fx.ref, m.Reference())
	})

	t.Run("NilReference", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := New(fx.ref, WithK(-1))
		assert.ErrorIs(t, err, ErrInvalidK)
	})
}

func TestProject(t *testing.T) {
	fx := newFixture(t)
	m, err := New(fx.ref)
	require.NoError(t, err)

	t.Run("Shapes", func(t *testing.T) {
		query := mat.NewDense(4, 6, nil)
		emb, err := m.Project(query)
		require.NoError(t, err)

		n, c := emb.Dims()
		assert.Equal(t, 4, n)
		assert.Equal(t, 3, c)
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		query := mat.NewDense(1, 6, []float64{1, 2, 3, 4, 5, 6})
		snapshot := mat.DenseCopyOf(query)

		_, err := m.Project(query)
		require.NoError(t, err)
		assert.True(t, mat.Equal(snapshot, query))
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		query := mat.NewDense(1, 5, nil)
		_, err := m.Project(query)
		require.Error(t, err)

		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
		assert.Equal(t, 6, dm.Expected)
		assert.Equal(t, 5, dm.Actual)
	})
}

func TestVerifyProjection(t *testing.T) {
	fx := newFixture(t)
	m, err := New(fx.ref)
	require.NoError(t, err)

	// Round-trip law: projecting the reference's own features reproduces
	// the reference embedding.
	assert.NoError(t, m.VerifyProjection(fx.refFeatures, 1e-9))

	// A shifted copy must fail the consistency check.
	shifted := mat.DenseCopyOf(fx.refFeatures)
	shifted.Set(0, 0, shifted.At(0, 0)+1)
	assert.Error(t, m.VerifyProjection(shifted, 1e-9))
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	m, err := New(fx.ref, WithK(5), WithSeed(7))
	require.NoError(t, err)

	rng := testutil.NewRNG(71)
	queryRows := append(
		rng.ClusterVectors(8, []float32{5, 0, 0, 1, 0, 0}, 0.2),
		rng.ClusterVectors(8, []float32{0, 5, 0, 0, 1, 0}, 0.2)...,
	)
	queryFeatures, err := matrix.FromRows32(queryRows)
	require.NoError(t, err)

	queryEmbedding, err := m.Project(queryFeatures)
	require.NoError(t, err)

	t.Run("KNN", func(t *testing.T) {
		results, err := m.TransferKNN(ctx, queryEmbedding)
		require.NoError(t, err)
		require.Len(t, results, 16)

		for i, r := range results {
			if i < 8 {
				assert.Equal(t, "alpha", r.Label)
			} else {
				assert.Equal(t, "beta", r.Label)
			}
			assert.Zero(t, r.Confidence)
		}
	})

	t.Run("MNN", func(t *testing.T) {
		results, err := m.TransferMNN(ctx, queryEmbedding)
		require.NoError(t, err)
		require.Len(t, results, 16)

		for i, r := range results {
			if i < 8 {
				assert.Equal(t, "alpha", r.Label)
			} else {
				assert.Equal(t, "beta", r.Label)
			}
			assert.GreaterOrEqual(t, r.Confidence, transfer.FallbackConfidence)
			assert.LessOrEqual(t, r.Confidence, 1.0)
		}
	})

	t.Run("EmbeddingComponentMismatch", func(t *testing.T) {
		bad := mat.NewDense(2, 4, nil)
		_, err := m.TransferKNN(ctx, bad)

		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})
}
