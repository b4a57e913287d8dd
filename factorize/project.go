package factorize

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// Project maps held-out rows xsTest (m x v1) into the latent space learned
// for the view factor hs (k x v1). It solves the least-squares problem
// Wtest * Hs ~= XsTest and clips negative entries of the solution to zero,
// projecting it back onto the non-negative orthant. Closed form, no
// iteration.
func Project(xsTest, hs *mat.Dense) (*mat.Dense, error) {
	m, v := xsTest.Dims()
	k, hv := hs.Dims()
	if v != hv {
		return nil, errors.Annotatef(ErrDimensionMismatch,
			"test rows have %d features, Hs maps %d", v, hv)
	}

	// Transposed system: Hs^T (v1 x k) * Wtest^T (k x m) = XsTest^T (v1 x m).
	var wt mat.Dense
	if err := wt.Solve(hs.T(), xsTest.T()); err != nil {
		return nil, errors.Annotate(err, "least-squares projection")
	}

	out := mat.NewDense(m, k, nil)
	for i := 0; i < m; i++ {
		row := out.RawRowView(i)
		for j := 0; j < k; j++ {
			v := wt.At(j, i)
			if v < 0 {
				v = 0
			}
			row[j] = v
		}
	}
	return out, nil
}
