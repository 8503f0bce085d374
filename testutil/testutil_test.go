package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42).UniformRangeVectors(5, 4)
	b := NewRNG(42).UniformRangeVectors(5, 4)
	assert.Equal(t, a, b)

	c := NewRNG(43).UniformRangeVectors(5, 4)
	assert.NotEqual(t, a, c)
}

func TestUniformRangeVectors(t *testing.T) {
	vectors := NewRNG(1).UniformRangeVectors(10, 3)
	require.Len(t, vectors, 10)
	for _, v := range vectors {
		require.Len(t, v, 3)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(-1))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestClusterVectors(t *testing.T) {
	centroid := []float32{10, -10, 0}
	vectors := NewRNG(2).ClusterVectors(100, centroid, 0.1)
	require.Len(t, vectors, 100)

	var mean [3]float32
	for _, v := range vectors {
		for j, x := range v {
			mean[j] += x / 100
		}
	}
	for j := range centroid {
		assert.InDelta(t, centroid[j], mean[j], 0.1)
	}
}
