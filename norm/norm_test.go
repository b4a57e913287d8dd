package norm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/norm"
)

func TestRowsUnitNorm(t *testing.T) {
	x := mat.NewDense(3, 3, []float64{
		3, 4, 0,
		1, 1, 1,
		0.5, 0, 0,
	})

	got := norm.Rows(x)

	n, _ := got.Dims()
	for i := 0; i < n; i++ {
		row := got.RawRowView(i)
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9, "row %d", i)
	}

	assert.InDelta(t, 0.6, got.At(0, 0), 1e-9)
	assert.InDelta(t, 0.8, got.At(0, 1), 1e-9)
}

func TestRowsZeroRow(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		0, 0, 0,
		2, 0, 0,
	})

	got := norm.Rows(x)

	for j := 0; j < 3; j++ {
		require.Equal(t, 0.0, got.At(0, j))
	}
	assert.InDelta(t, 1.0, got.At(1, 0), 1e-9)
}

func TestRowsDoesNotMutateInput(t *testing.T) {
	x := mat.NewDense(1, 2, []float64{3, 4})
	_ = norm.Rows(x)
	require.Equal(t, 3.0, x.At(0, 0))
	require.Equal(t, 4.0, x.At(0, 1))
}
