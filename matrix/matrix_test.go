package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows32(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		rows := [][]float32{{1, 2, 3}, {4, 5, 6}}
		m, err := FromRows32(rows)
		require.NoError(t, err)

		r, c := m.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 3, c)
		assert.Equal(t, rows, Rows32(m))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := FromRows32(nil)
		assert.Error(t, err)
	})

	t.Run("Ragged", func(t *testing.T) {
		_, err := FromRows32([][]float32{{1, 2}, {1}})
		assert.Error(t, err)
	})
}

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1.5, 2.5}, {3.5, 4.5}})
	require.NoError(t, err)
	assert.Equal(t, 1.5, m.At(0, 0))
	assert.Equal(t, 4.5, m.At(1, 1))

	_, err = FromRows([][]float64{{}, {}})
	assert.Error(t, err)
}
