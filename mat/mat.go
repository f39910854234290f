// Package mat holds small gonum matrix helpers shared by the panel and solver packages
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch    = errors.New("column size mismatch")
	ErrRowMismatch    = errors.New("row size mismatch")
	ErrWeightMismatch = errors.New("weight length does not match number of rows")
)

// NewDenseFromArray builds a row major dense matrix from a slice of rows. All rows must
// have the same length.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if n < 0 {
		n = 0
	}

	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// ScaleRows multiplies every row i of x in place by w[i].
func ScaleRows(x *mat.Dense, w []float64) error {
	m, _ := x.Dims()
	if len(w) != m {
		return fmt.Errorf("got %d weights for %d rows, %w", len(w), m, ErrWeightMismatch)
	}
	for i := 0; i < m; i++ {
		row := x.RawRowView(i)
		for j := range row {
			row[j] *= w[i]
		}
	}
	return nil
}

// SubMatrix returns a copy of the rows and columns of a square matrix selected by idx.
func SubMatrix(a mat.Matrix, idx []int) *mat.SymDense {
	n := len(idx)
	sub := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sub.SetSym(i, j, a.At(idx[i], idx[j]))
		}
	}
	return sub
}
