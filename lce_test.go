package lce

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/eval"
)

func testConfig() Config {
	config := DefaultConfig()
	config.Rank = 2
	config.Alpha = 0.5
	config.Beta = 0.1
	config.Lambda = 0.1
	config.Epsilon = 1e-4
	config.MaxIter = 50
	config.NNeighbors = 2
	config.Seed = 42
	return config
}

func testViews() (*mat.Dense, *mat.Dense) {
	xs := mat.NewDense(6, 4, []float64{
		1, 0, 2, 0,
		2, 0, 1, 0,
		1, 1, 2, 0,
		0, 3, 0, 1,
		0, 2, 0, 2,
		0, 3, 1, 1,
	})
	xu := mat.NewDense(6, 3, []float64{
		1, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		0, 1, 1,
		0, 0, 1,
	})
	return xs, xu
}

func TestFit(t *testing.T) {
	xs, xu := testViews()
	model := New(testConfig())
	require.NoError(t, model.Fit(xs, xu))

	r, c := model.W().Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 2, c)
	r, c = model.Hs().Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 4, c)
	r, c = model.Hu().Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)

	obj := model.Objective()
	require.NotEmpty(t, obj)
	require.LessOrEqual(t, len(obj), 50)
	last := obj[len(obj)-1]
	require.False(t, math.IsNaN(last))
	require.False(t, math.IsInf(last, 0))
	require.LessOrEqual(t, last, obj[0])

	adj := model.Adjacency()
	require.NotNil(t, adj)
	require.Equal(t, 6, adj.NRows)
}

func TestFitWithoutGraph(t *testing.T) {
	xs, xu := testViews()
	config := testConfig()
	config.UseGraph = false

	model := New(config)
	require.NoError(t, model.Fit(xs, xu))
	require.Nil(t, model.Adjacency())
	require.NotNil(t, model.W())
}

func TestFitReproducible(t *testing.T) {
	xs, xu := testViews()

	a := New(testConfig())
	require.NoError(t, a.Fit(xs, xu))
	b := New(testConfig())
	require.NoError(t, b.Fit(xs, xu))

	require.Equal(t, a.Objective(), b.Objective())
	require.Equal(t, a.W().RawMatrix().Data, b.W().RawMatrix().Data)
}

func TestFitSeedWrapsToLow32Bits(t *testing.T) {
	xs, xu := testViews()

	a := New(testConfig())
	require.NoError(t, a.Fit(xs, xu))

	// Seeds congruent modulo 2^32 initialize identically.
	wrapped := testConfig()
	wrapped.Seed = 42 + (1 << 32)
	b := New(wrapped)
	require.NoError(t, b.Fit(xs, xu))

	require.Equal(t, a.Objective(), b.Objective())
	require.Equal(t, a.W().RawMatrix().Data, b.W().RawMatrix().Data)
}

func TestScoreShape(t *testing.T) {
	xs, xu := testViews()
	model := New(testConfig())
	require.NoError(t, model.Fit(xs, xu))

	xsTest := mat.NewDense(2, 4, []float64{
		1, 0, 2, 0,
		0, 3, 0, 1,
	})
	scores, err := model.Score(xsTest)
	require.NoError(t, err)

	r, c := scores.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)
}

func TestScoreRanksTrainingLabels(t *testing.T) {
	xs, xu := testViews()
	model := New(testConfig())
	require.NoError(t, model.Fit(xs, xu))

	// Scoring the training rows against their own labels should beat a
	// random ranking by a wide margin on this tiny, well-separated corpus.
	scores, err := model.Score(xs)
	require.NoError(t, err)

	ndcg, err := eval.NDCG(scores, xu)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ndcg, 0.0)
	assert.LessOrEqual(t, ndcg, 1.0)
	assert.Greater(t, ndcg, 0.5)
}

func TestNotFitted(t *testing.T) {
	model := New(DefaultConfig())

	_, err := model.Project(mat.NewDense(1, 4, nil))
	require.Error(t, err)
	require.True(t, stderrors.Is(err, ErrNotFitted))

	_, err = model.Score(mat.NewDense(1, 4, nil))
	require.Error(t, err)
	require.True(t, stderrors.Is(err, ErrNotFitted))

	require.Nil(t, model.W())
	require.Nil(t, model.Hs())
	require.Nil(t, model.Hu())
	require.Nil(t, model.Objective())
}

func TestFitPropagatesGraphError(t *testing.T) {
	xs, xu := testViews()
	config := testConfig()
	config.NNeighbors = 6 // k must stay below the row count

	model := New(config)
	require.Error(t, model.Fit(xs, xu))
}
