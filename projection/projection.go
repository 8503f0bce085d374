// Package projection maps feature matrices into a reference-derived
// embedding space.
//
// The projection is a plain matrix multiply: no per-component scaling is
// applied, because the reference embedding the output will be compared
// against already carries whatever scaling convention the decomposition
// used. The output is comparable to the reference embedding only when the
// input was centered with the reference dataset's per-feature means; Project
// therefore never centers implicitly, and CenterInPlace takes the reference
// means explicitly. Centering a query with its own means silently breaks the
// identity the projection relies on, which is why the two steps are kept
// separate and explicit.
package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/reference"
)

// ErrDimensionMismatch is a named error type for feature-count disagreement
// between a matrix and the basis.
type ErrDimensionMismatch struct {
	Expected int // Expected feature count
	Actual   int // Actual feature count
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d features, got %d", e.Expected, e.Actual)
}

// Project multiplies features (samples x features) by the basis loadings
// (features x components) and returns the samples x components embedding.
//
// features must already be centered with the reference per-feature means
// (see CenterInPlace) and restricted to the same globally ordered feature
// set as the basis.
func Project(features *mat.Dense, b *reference.Basis) (*mat.Dense, error) {
	if features == nil {
		return nil, fmt.Errorf("projection: nil features")
	}

	n, f := features.Dims()
	if f != b.Features() {
		return nil, &ErrDimensionMismatch{Expected: b.Features(), Actual: f}
	}

	out := mat.NewDense(n, b.Components(), nil)
	out.Mul(features, b.Loadings())

	return out, nil
}

// CenterInPlace subtracts the reference per-feature means from every row of
// features. means must hold one value per feature column.
func CenterInPlace(features *mat.Dense, means []float64) error {
	if features == nil {
		return fmt.Errorf("projection: nil features")
	}

	n, f := features.Dims()
	if len(means) != f {
		return &ErrDimensionMismatch{Expected: f, Actual: len(means)}
	}

	for i := 0; i < n; i++ {
		row := features.RawRowView(i)
		for j := range row {
			row[j] -= means[j]
		}
	}

	return nil
}
