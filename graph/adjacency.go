package graph

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/internal/heap"
	"github.com/nozzle/lce/internal/parallel"
	"github.com/nozzle/lce/norm"
)

// ErrNeighborCount indicates that the requested neighbor count k is outside
// the valid range 1 <= k < n.
const ErrNeighborCount = errors.ConstError("graph: neighbor count out of range")

// ConstructAdjacency builds a symmetric k-nearest-neighbor adjacency matrix
// over the rows of x using cosine similarity.
//
// Rows are normalized to unit L2 norm, the full cosine similarity matrix is
// formed as a single dense product, and for each row the k most similar
// other rows are kept (self-similarity is excluded). The result is
// symmetrized by taking the element-wise maximum with its transpose, so an
// edge exists if either endpoint selected the other, weighted by the larger
// of the two similarities. Zero-similarity candidates never become edges,
// so a row orthogonal to every other row ends up isolated. If binary is
// true every kept entry becomes 1.
//
// The dense n*n similarity product is the scalability bottleneck for large
// n; this builder is exact, not approximate.
func ConstructAdjacency(x *mat.Dense, k int, binary bool) (*CSR, error) {
	n, _ := x.Dims()
	if k < 1 || k >= n {
		return nil, errors.Annotatef(ErrNeighborCount, "k=%d, n=%d", k, n)
	}

	xn := norm.Rows(x)

	var sim mat.Dense
	sim.Mul(xn, xn.T())

	// Per-row top-k selection, excluding self.
	neighborIdx := make([][]int32, n)
	neighborSim := make([][]float64, n)

	parallel.ParallelFor(0, n, parallel.NumWorkers(), func(i int) {
		h := heap.New(k)
		row := sim.RawRowView(i)
		for j, s := range row {
			if j == i {
				continue
			}
			h.Push(int32(j), s)
		}
		h.Sort()
		neighborIdx[i] = h.Indices[:h.Size]
		neighborSim[i] = h.Sims[:h.Size]
	})

	return symmetrizeMax(neighborIdx, neighborSim, n, binary), nil
}

// symmetrizeMax builds the undirected adjacency from directed neighbor
// lists, keeping the larger similarity when both directions exist.
func symmetrizeMax(neighborIdx [][]int32, neighborSim [][]float64, n int, binary bool) *CSR {
	type edgeKey struct {
		i, j int32
	}
	edges := make(map[edgeKey]float64)

	for i := range neighborIdx {
		for idx, j := range neighborIdx[i] {
			v := neighborSim[i][idx]
			// A zero-similarity candidate is not a neighbor, only a
			// leftover top-k slot.
			if v <= 0 {
				continue
			}
			lo, hi := int32(i), j
			if lo > hi {
				lo, hi = hi, lo
			}
			key := edgeKey{lo, hi}
			if prev, ok := edges[key]; !ok || v > prev {
				edges[key] = v
			}
		}
	}

	rows := make([]int32, 0, 2*len(edges))
	cols := make([]int32, 0, 2*len(edges))
	data := make([]float64, 0, 2*len(edges))

	for key, v := range edges {
		if binary {
			v = 1
		}
		rows = append(rows, key.i, key.j)
		cols = append(cols, key.j, key.i)
		data = append(data, v, v)
	}

	return cooToCSR(rows, cols, data, n, n)
}
