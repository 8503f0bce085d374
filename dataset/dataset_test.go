package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/transfer"
)

func TestMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1.5, -2, 0.25, 3, 4, 5})

	for _, name := range []string{"m.csv", "m.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, WriteMatrix(path, m))

			got, err := ReadMatrix(path)
			require.NoError(t, err)
			assert.True(t, mat.Equal(m, got))
		})
	}
}

func TestReadMatrixErrors(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, err := ReadMatrix(filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})

	t.Run("NonNumeric", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("1,2\n3,x\n"), 0o644))

		_, err := ReadMatrix(path)
		assert.Error(t, err)
	})

	t.Run("Ragged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragged.csv")
		require.NoError(t, os.WriteFile(path, []byte("1,2\n3\n"), 0o644))

		_, err := ReadMatrix(path)
		assert.Error(t, err)
	})
}

func TestReadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\n\nbeta\ngamma\n"), 0o644))

	labels, err := ReadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, labels)
}

func TestReadVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "means.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.5\n-1\n\n2.25\n"), 0o644))

	values, err := ReadVector(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 2.25}, values)

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("1\nnope\n"), 0o644))
	_, err = ReadVector(bad)
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	results := []transfer.Result{
		{Label: "A", Confidence: 0.5},
		{Label: "B", Confidence: 0.01},
	}
	require.NoError(t, WriteResults(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "sample,label,confidence", lines[0])
	assert.Equal(t, "0,A,0.5", lines[1])
	assert.Equal(t, "1,B,0.01", lines[2])
}
