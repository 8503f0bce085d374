// Package reference holds the frozen reference-side inputs of a mapping run:
// the embedding basis produced by an external decomposition, the reference
// sample embedding, the reference labels and the per-feature means used for
// centering. Everything in this package is validated at construction time and
// read-only afterwards.
package reference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Basis is a feature-by-component loading matrix with optional per-component
// scale factors (the singular values of the decomposition that produced it).
type Basis struct {
	loadings *mat.Dense
	scale    []float64
}

// NewBasis creates a basis from a features x components loading matrix.
// scale may be nil; when present it must hold one non-negative value per
// component.
func NewBasis(loadings *mat.Dense, scale []float64) (*Basis, error) {
	if loadings == nil {
		return nil, fmt.Errorf("reference: nil loadings")
	}

	features, components := loadings.Dims()
	if features == 0 || components == 0 {
		return nil, fmt.Errorf("reference: empty loadings (%dx%d)", features, components)
	}

	if scale != nil {
		if len(scale) != components {
			return nil, fmt.Errorf("reference: %d scale factors for %d components", len(scale), components)
		}
		for i, s := range scale {
			if s < 0 {
				return nil, fmt.Errorf("reference: negative scale factor %g at component %d", s, i)
			}
		}
	}

	return &Basis{loadings: loadings, scale: scale}, nil
}

// Loadings returns the features x components loading matrix.
// The returned matrix must not be mutated.
func (b *Basis) Loadings() *mat.Dense { return b.loadings }

// Features returns the number of features the basis spans.
func (b *Basis) Features() int {
	f, _ := b.loadings.Dims()
	return f
}

// Components returns the number of retained components.
func (b *Basis) Components() int {
	_, c := b.loadings.Dims()
	return c
}

// Scale returns the per-component scale factors, or nil if none were supplied.
func (b *Basis) Scale() []float64 { return b.scale }

// EmbeddingFromScores re-derives a reference embedding from raw decomposition
// scores (samples x components) by scaling each column with the basis scale
// factors. Only needed when the decomposition step emitted unscaled scores;
// once an embedding exists it is never recomputed.
func (b *Basis) EmbeddingFromScores(scores *mat.Dense) (*mat.Dense, error) {
	if b.scale == nil {
		return nil, fmt.Errorf("reference: basis carries no scale factors")
	}

	n, c := scores.Dims()
	if c != b.Components() {
		return nil, fmt.Errorf("reference: scores have %d components, basis has %d", c, b.Components())
	}

	out := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, scores.At(i, j)*b.scale[j])
		}
	}

	return out, nil
}

// Reference bundles a basis with the matching reference embedding, labels and
// per-feature means.
type Reference struct {
	basis     *Basis
	embedding *mat.Dense
	labels    []string
	means     []float64
}

// New creates a validated reference. The embedding must be samples x
// components with the component count of the basis, labels must hold one
// entry per embedding row, and means one entry per basis feature.
func New(basis *Basis, embedding *mat.Dense, labels []string, means []float64) (*Reference, error) {
	if basis == nil {
		return nil, fmt.Errorf("reference: nil basis")
	}
	if embedding == nil {
		return nil, fmt.Errorf("reference: nil embedding")
	}

	n, c := embedding.Dims()
	if c != basis.Components() {
		return nil, fmt.Errorf("reference: embedding has %d components, basis has %d", c, basis.Components())
	}
	if len(labels) != n {
		return nil, fmt.Errorf("reference: %d labels for %d embedding rows", len(labels), n)
	}
	if means != nil && len(means) != basis.Features() {
		return nil, fmt.Errorf("reference: %d means for %d features", len(means), basis.Features())
	}

	return &Reference{
		basis:     basis,
		embedding: embedding,
		labels:    labels,
		means:     means,
	}, nil
}

// Basis returns the embedding basis.
func (r *Reference) Basis() *Basis { return r.basis }

// Embedding returns the samples x components reference embedding.
// The returned matrix must not be mutated.
func (r *Reference) Embedding() *mat.Dense { return r.embedding }

// Labels returns the per-sample reference labels.
// The returned slice must not be mutated.
func (r *Reference) Labels() []string { return r.labels }

// Means returns the per-feature reference means used for centering, or nil
// if the caller centers externally.
func (r *Reference) Means() []float64 { return r.means }

// Len returns the number of reference samples.
func (r *Reference) Len() int {
	n, _ := r.embedding.Dims()
	return n
}
