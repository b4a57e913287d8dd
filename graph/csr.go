// Package graph provides the k-nearest-neighbor adjacency matrix used for
// graph-regularized factorization.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSR is a sparse matrix in compressed sparse row format.
type CSR struct {
	Indptr  []int32   // Row pointers
	Indices []int32   // Column indices
	Data    []float64 // Values
	NRows   int       // Number of rows
	NCols   int       // Number of columns
	NNZ     int       // Number of non-zero elements
}

// cooToCSR converts COO triples to CSR format.
func cooToCSR(rows, cols []int32, data []float64, nrows, ncols int) *CSR {
	nnz := len(rows)

	type entry struct {
		row, col int32
		val      float64
	}
	entries := make([]entry, nnz)
	for i := range entries {
		entries[i] = entry{rows[i], cols[i], data[i]}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].row != entries[j].row {
			return entries[i].row < entries[j].row
		}
		return entries[i].col < entries[j].col
	})

	indptr := make([]int32, nrows+1)
	indices := make([]int32, nnz)
	vals := make([]float64, nnz)

	for i, e := range entries {
		indices[i] = e.col
		vals[i] = e.val
		indptr[e.row+1]++
	}

	for i := 1; i <= nrows; i++ {
		indptr[i] += indptr[i-1]
	}

	return &CSR{
		Indptr:  indptr,
		Indices: indices,
		Data:    vals,
		NRows:   nrows,
		NCols:   ncols,
		NNZ:     nnz,
	}
}

// GetRow returns the column indices and values for a given row.
func (a *CSR) GetRow(row int) ([]int32, []float64) {
	start := a.Indptr[row]
	end := a.Indptr[row+1]
	return a.Indices[start:end], a.Data[start:end]
}

// At returns the value at (i, j), zero if the entry is not stored.
func (a *CSR) At(i, j int) float64 {
	cols, vals := a.GetRow(i)
	for idx, c := range cols {
		if int(c) == j {
			return vals[idx]
		}
	}
	return 0
}

// RowSums returns the vector of row sums. For a symmetric adjacency matrix
// this is the degree vector.
func (a *CSR) RowSums() []float64 {
	sums := make([]float64, a.NRows)
	for i := 0; i < a.NRows; i++ {
		_, vals := a.GetRow(i)
		for _, v := range vals {
			sums[i] += v
		}
	}
	return sums
}

// MulDense computes dst = A*x for a dense x. dst must be NRows-by-c where
// x is NCols-by-c.
func (a *CSR) MulDense(x *mat.Dense, dst *mat.Dense) {
	_, c := x.Dims()
	for i := 0; i < a.NRows; i++ {
		cols, vals := a.GetRow(i)
		out := dst.RawRowView(i)
		for j := 0; j < c; j++ {
			out[j] = 0
		}
		for idx, col := range cols {
			v := vals[idx]
			row := x.RawRowView(int(col))
			for j := 0; j < c; j++ {
				out[j] += v * row[j]
			}
		}
	}
}
