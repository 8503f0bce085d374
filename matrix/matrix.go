// Package matrix provides conversions between gonum dense matrices, used on
// the linear-algebra side, and float32 row vectors, used on the index side.
package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FromRows32 builds a dense matrix from float32 row vectors.
// All rows must have the same length.
func FromRows32(rows [][]float32) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix: no rows")
	}

	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("matrix: empty rows")
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix: row %d has %d columns, expected %d", i, len(row), cols)
		}
		for _, v := range row {
			data = append(data, float64(v))
		}
	}

	return mat.NewDense(len(rows), cols, data), nil
}

// FromRows builds a dense matrix from float64 row vectors.
// All rows must have the same length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix: no rows")
	}

	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("matrix: empty rows")
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix: row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

// Rows32 extracts float32 row vectors from a matrix.
func Rows32(m mat.Matrix) [][]float32 {
	r, c := m.Dims()
	rows := make([][]float32, r)
	data := make([]float32, r*c)

	for i := 0; i < r; i++ {
		row := data[i*c : (i+1)*c]
		for j := 0; j < c; j++ {
			row[j] = float32(m.At(i, j))
		}
		rows[i] = row
	}

	return rows
}
