// Package distance provides vector distance calculations for embedding
// comparison. The transfer pipeline is built entirely on the angular metric:
// neighbor ranking must be invariant to embedding magnitude, since reference
// and query embeddings are scaled by different normalization conventions.
package distance

import (
	"fmt"
	"slices"

	"github.com/refbio/refmap/internal/math32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// Magnitude calculates the L2 norm of v.
func Magnitude(v []float32) float32 {
	return math32.Sqrt(math32.Dot(v, v))
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector sizes do not match: %d != %d", len(a), len(b))
	}

	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return math32.Dot(a, b) / (magA * magB), nil
}

// Angular calculates the angular distance 1 - cos(a,b) between two
// L2-normalized vectors. For normalized inputs this reduces to 1 - dot.
// Assumes vectors are the same length and already normalized.
func Angular(a, b []float32) float32 {
	return 1 - math32.Dot(a, b)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := math32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / math32.Sqrt(norm2)
	math32.ScaleInPlace(v, inv)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}
