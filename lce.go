// Package lce implements Local Collective Embeddings: a joint non-negative
// low-rank factorization of two row-aligned matrices (for example document
// content and document authorship) that optionally respects a
// k-nearest-neighbor similarity graph over the shared rows.
//
// The learned shared factor embeds each row into a latent space from which
// missing entries of either view can be ranked; held-out rows are mapped
// into the same space by a closed-form least-squares projection.
//
// Basic usage:
//
//	model := lce.New(lce.DefaultConfig())
//	if err := model.Fit(xs, xu); err != nil {
//		...
//	}
//	scores, err := model.Score(xsTest)
package lce

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/factorize"
	"github.com/nozzle/lce/graph"
	"github.com/nozzle/lce/internal/rand"
)

// ErrNotFitted indicates a projection or score request before Fit.
const ErrNotFitted = errors.ConstError("lce: model is not fitted")

// Config configures the model.
type Config struct {
	// Rank is the dimensionality of the shared latent space.
	// Default: 20
	Rank int

	// Alpha in [0,1] is the relative weight of the content view Xs;
	// the label view Xu receives 1-Alpha.
	// Default: 0.5
	Alpha float64

	// Beta is the strength of the graph Laplacian penalty. Only used
	// when UseGraph is true.
	// Default: 0.05
	Beta float64

	// Lambda is the Tikhonov penalty on all three factors.
	// Default: 0.5
	Lambda float64

	// Epsilon is the convergence threshold on the objective delta.
	// Default: 1e-4
	Epsilon float64

	// MaxIter is the hard iteration cap.
	// Default: 200
	MaxIter int

	// NNeighbors is the number of neighbors for adjacency construction.
	// Default: 10
	NNeighbors int

	// BinaryGraph replaces similarity weights with 0/1 edges.
	// Default: false
	BinaryGraph bool

	// UseGraph selects the graph-regularized variant. When false no
	// adjacency is built and no graph products are computed.
	// Default: true
	UseGraph bool

	// Seed for factor initialization. Only the low 32 bits are used;
	// values outside [0, 2^32) wrap. Use a fixed seed for reproducible
	// results.
	// Default: 42
	Seed int64

	// Verbose reports each iteration's objective and delta through Logger.
	// Default: false
	Verbose bool

	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger

	// ProgressCallback is called after each iteration with
	// (iteration, maxIter).
	// Default: nil
	ProgressCallback func(iteration, total int)
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{
		Rank:       20,
		Alpha:      0.5,
		Beta:       0.05,
		Lambda:     0.5,
		Epsilon:    1e-4,
		MaxIter:    200,
		NNeighbors: 10,
		UseGraph:   true,
		Seed:       42,
	}
}

// Model is the local collective embedding model.
type Model struct {
	Config Config

	// Learned state after fitting
	adjacency *graph.CSR
	result    *factorize.Result
}

// New creates a new model with the given configuration.
func New(config Config) *Model {
	return &Model{Config: config}
}

// Fit learns the shared embedding from the content view xs (n x v1) and
// the label view xu (n x v2). When the configuration enables the graph
// variant the adjacency is built from the rows of xs.
func (m *Model) Fit(xs, xu *mat.Dense) error {
	cfg := factorize.Config{
		Rank:             m.Config.Rank,
		Alpha:            m.Config.Alpha,
		Lambda:           m.Config.Lambda,
		Epsilon:          m.Config.Epsilon,
		MaxIter:          m.Config.MaxIter,
		RNG:              rand.NewMT19937(uint32(m.Config.Seed)),
		Verbose:          m.Config.Verbose,
		Logger:           m.Config.Logger,
		ProgressCallback: m.Config.ProgressCallback,
	}

	if m.Config.UseGraph {
		a, err := graph.ConstructAdjacency(xs, m.Config.NNeighbors, m.Config.BinaryGraph)
		if err != nil {
			return errors.Annotate(err, "building adjacency")
		}
		m.adjacency = a
		cfg.Graph = &factorize.GraphRegularization{Adjacency: a, Weight: m.Config.Beta}
	}

	result, err := factorize.Run(xs, xu, cfg)
	if err != nil {
		return err
	}
	m.result = result
	return nil
}

// Project maps held-out content rows into the learned latent space.
func (m *Model) Project(xsTest *mat.Dense) (*mat.Dense, error) {
	if m.result == nil {
		return nil, ErrNotFitted
	}
	return factorize.Project(xsTest, m.result.Hs)
}

// Score projects held-out content rows and returns their ranking scores
// over the label view, Wtest * Hu.
func (m *Model) Score(xsTest *mat.Dense) (*mat.Dense, error) {
	wTest, err := m.Project(xsTest)
	if err != nil {
		return nil, err
	}
	var scores mat.Dense
	scores.Mul(wTest, m.result.Hu)
	return &scores, nil
}

// W returns the shared factor, nil before fitting.
func (m *Model) W() *mat.Dense {
	if m.result == nil {
		return nil
	}
	return m.result.W
}

// Hs returns the content-view factor, nil before fitting.
func (m *Model) Hs() *mat.Dense {
	if m.result == nil {
		return nil
	}
	return m.result.Hs
}

// Hu returns the label-view factor, nil before fitting.
func (m *Model) Hu() *mat.Dense {
	if m.result == nil {
		return nil
	}
	return m.result.Hu
}

// Objective returns the objective trajectory, one value per iteration.
func (m *Model) Objective() []float64 {
	if m.result == nil {
		return nil
	}
	return m.result.Objective
}

// Adjacency returns the similarity graph built during fitting, nil for the
// unregularized variant.
func (m *Model) Adjacency() *graph.CSR {
	return m.adjacency
}
