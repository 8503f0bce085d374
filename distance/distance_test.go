package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"ScaleInvariant", []float32{1, 2}, []float32{10, 20}, 1},
		{"ZeroVector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.Error(t, err)
	})
}

func TestAngular(t *testing.T) {
	a, ok := NormalizeL2Copy([]float32{3, 4})
	require.True(t, ok)
	b, ok := NormalizeL2Copy([]float32{6, 8})
	require.True(t, ok)

	// Same direction, different magnitude: angular distance 0.
	assert.InDelta(t, 0, Angular(a, b), 1e-5)

	c, ok := NormalizeL2Copy([]float32{-4, 3})
	require.True(t, ok)

	// Orthogonal: angular distance 1.
	assert.InDelta(t, 1, Angular(a, c), 1e-5)
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		ok := NormalizeL2InPlace(v)
		assert.True(t, ok)
		assert.InDelta(t, float32(0.6), v[0], 1e-5)
		assert.InDelta(t, float32(0.8), v[1], 1e-5)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		v := []float32{0, 0, 0}
		ok := NormalizeL2InPlace(v)
		assert.False(t, ok)
	})

	t.Run("Copy", func(t *testing.T) {
		src := []float32{0, 5}
		dst, ok := NormalizeL2Copy(src)
		assert.True(t, ok)
		assert.Equal(t, []float32{0, 5}, src)
		assert.InDelta(t, float32(1), dst[1], 1e-5)
	})

	t.Run("Empty", func(t *testing.T) {
		ok := NormalizeL2InPlace(nil)
		assert.False(t, ok)
	})
}
