// Package norm provides row-wise normalization of matrices.
package norm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/internal/parallel"
)

// epsilon guards all-zero rows against division by zero.
const epsilon = 1e-10

// Rows returns a copy of x with every row scaled to unit L2 norm.
// All-zero rows stay all-zero.
func Rows(x *mat.Dense) *mat.Dense {
	n, d := x.Dims()
	out := mat.NewDense(n, d, nil)

	parallel.ParallelFor(0, n, parallel.NumWorkers(), func(i int) {
		row := x.RawRowView(i)
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		scale := 1.0 / (math.Sqrt(sum) + epsilon)
		dst := out.RawRowView(i)
		for j, v := range row {
			dst[j] = v * scale
		}
	})

	return out
}
