package factorize

import "gonum.org/v1/gonum/mat"

// traceInner computes trace(A^T B) as the sum of the element-wise product.
// Both matrices must have identical dimensions.
func traceInner(a, b *mat.Dense) float64 {
	r, c := a.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		ar := a.RawRowView(i)
		br := b.RawRowView(i)
		for j := 0; j < c; j++ {
			sum += ar[j] * br[j]
		}
	}
	return sum
}
