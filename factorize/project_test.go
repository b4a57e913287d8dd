package factorize

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestProjectRecoversKnownFactors(t *testing.T) {
	// Exact factorization: Xs = W * Hs with non-negative W, so the
	// least-squares solution reproduces W up to rounding.
	w := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 2,
		1, 1,
	})
	hs := mat.NewDense(2, 4, []float64{
		1, 2, 0, 1,
		0, 1, 3, 1,
	})
	var xs mat.Dense
	xs.Mul(w, hs)

	got, err := Project(&xs, hs)
	require.NoError(t, err)

	r, c := got.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, w.At(i, j), got.At(i, j), 1e-9)
		}
	}
}

func TestProjectClipsNegatives(t *testing.T) {
	// One latent dimension: Wtest = <x, h> / <h, h>, negative for
	// anti-aligned rows, so the clip must zero it.
	hs := mat.NewDense(1, 2, []float64{1, 1})
	xsTest := mat.NewDense(2, 2, []float64{
		-3, -3,
		2, 2,
	})

	got, err := Project(xsTest, hs)
	require.NoError(t, err)

	require.Equal(t, 0.0, got.At(0, 0))
	assert.InDelta(t, 2.0, got.At(1, 0), 1e-9)
}

func TestProjectRoundTrip(t *testing.T) {
	xs, xu := testViews()
	res, err := Run(xs, xu, testConfig())
	require.NoError(t, err)

	// Projecting the training rows through the learned Hs approximately
	// reproduces the training W.
	got, err := Project(xs, res.Hs)
	require.NoError(t, err)

	var recon, reconW mat.Dense
	recon.Mul(res.W, res.Hs)
	reconW.Mul(got, res.Hs)

	// Before clipping the least-squares solution beats the trained W, so
	// the clipped reconstruction stays in the same error regime.
	var diffTrained, diffProjected mat.Dense
	diffTrained.Sub(xs, &recon)
	diffProjected.Sub(xs, &reconW)
	assert.LessOrEqual(t, mat.Norm(&diffProjected, 2), mat.Norm(&diffTrained, 2)*1.5+1e-6)

	r, c := got.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			require.GreaterOrEqual(t, got.At(i, j), 0.0)
		}
	}
}

func TestProjectDimensionMismatch(t *testing.T) {
	hs := mat.NewDense(2, 4, nil)
	xsTest := mat.NewDense(3, 5, nil)

	_, err := Project(xsTest, hs)
	require.Error(t, err)
	require.True(t, stderrors.Is(err, ErrDimensionMismatch))
}
