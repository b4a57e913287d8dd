// Package factorize implements the joint non-negative factorization engine.
//
// Two row-aligned views Xs (n x v1) and Xu (n x v2) are decomposed into a
// shared factor W (n x k) and per-view factors Hs (k x v1) and Hu (k x v2)
// by alternating multiplicative updates. An optional similarity graph over
// the shared rows adds a Laplacian smoothing term that pulls embeddings of
// adjacent rows together.
package factorize

import (
	"math"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce/graph"
	"github.com/nozzle/lce/internal/parallel"
	"github.com/nozzle/lce/internal/rand"
)

const (
	// floor clamps update denominators, so a vanishing denominator scales
	// the entry toward zero instead of dividing by zero.
	floor = 1e-10

	// increaseTolerance absorbs floating-point rounding when checking that
	// the objective is non-increasing.
	increaseTolerance = 1e-8

	defaultSeed = 42
)

const (
	// ErrDimensionMismatch indicates row counts or the rank make the
	// factorization ill-posed.
	ErrDimensionMismatch = errors.ConstError("factorize: dimension mismatch")

	// ErrInvalidHyperparameter indicates a hyperparameter outside its
	// documented range.
	ErrInvalidHyperparameter = errors.ConstError("factorize: invalid hyperparameter")

	// ErrNegativeInput indicates a negative entry in an input matrix.
	ErrNegativeInput = errors.ConstError("factorize: negative input entry")
)

// GraphRegularization couples the factorization to a similarity graph over
// the shared rows. Weight is the strength of the Laplacian penalty.
type GraphRegularization struct {
	Adjacency *graph.CSR
	Weight    float64
}

// Config configures a factorization run.
type Config struct {
	// Rank is the dimensionality k of the shared latent space.
	Rank int

	// Alpha in [0,1] is the relative weight of the Xs reconstruction;
	// Xu receives 1-Alpha.
	Alpha float64

	// Lambda is the Tikhonov penalty on all three factors.
	Lambda float64

	// Epsilon is the convergence threshold on the objective delta.
	Epsilon float64

	// MaxIter is the hard iteration cap.
	MaxIter int

	// Graph enables the graph-regularized variant. When nil no graph
	// products are computed or cached at all.
	Graph *GraphRegularization

	// RNG seeds factor initialization. Nil defaults to seed 42.
	RNG *rand.MT19937

	// Verbose reports each iteration's index, objective and delta
	// through Logger.
	Verbose bool

	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger

	// ProgressCallback is called after each iteration with
	// (iteration, maxIter).
	ProgressCallback func(iteration, total int)
}

// DefaultConfig returns the default factorization configuration.
func DefaultConfig() Config {
	return Config{
		Rank:    20,
		Alpha:   0.5,
		Lambda:  0.5,
		Epsilon: 1e-4,
		MaxIter: 200,
	}
}

// Result holds the learned factors and the objective trajectory, one value
// per completed iteration.
type Result struct {
	W         *mat.Dense
	Hs        *mat.Dense
	Hu        *mat.Dense
	Objective []float64
}

// Run factorizes xs and xu under cfg. The returned factors are
// entry-wise non-negative; reaching MaxIter without the delta threshold is
// a normal termination, not an error.
func Run(xs, xu *mat.Dense, cfg Config) (*Result, error) {
	if err := validate(xs, xu, cfg); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := cfg.RNG
	if rng == nil {
		rng = rand.NewMT19937(defaultSeed)
	}

	n, v1 := xs.Dims()
	_, v2 := xu.Dims()
	k := cfg.Rank
	alpha := cfg.Alpha
	gamma := 1 - alpha

	w := randomFactor(n, k, rng)
	hs := randomFactor(k, v1, rng)
	hu := randomFactor(k, v2, rng)

	// Graph products, cached once per iteration. The unregularized variant
	// never allocates these.
	var (
		adj     *graph.CSR
		beta    float64
		degrees []float64
		aw, dw  *mat.Dense
	)
	if cfg.Graph != nil {
		adj = cfg.Graph.Adjacency
		beta = cfg.Graph.Weight
		degrees = adj.RowSums()
		aw = mat.NewDense(n, k, nil)
		dw = mat.NewDense(n, k, nil)
		adj.MulDense(w, aw)
		scaleRows(dw, w, degrees)
	}

	// Cached cross-products of W, refreshed at the end of every iteration.
	wtw := mat.NewDense(k, k, nil)
	wtxs := mat.NewDense(k, v1, nil)
	wtxu := mat.NewDense(k, v2, nil)
	wtw.Mul(w.T(), w)
	wtxs.Mul(w.T(), xs)
	wtxu.Mul(w.T(), xu)

	// Constant reconstruction terms.
	trXs := traceInner(xs, xs)
	trXu := traceInner(xu, xu)

	// Scratch space reused across iterations.
	hsDen := mat.NewDense(k, v1, nil)
	huDen := mat.NewDense(k, v2, nil)
	hsGram := mat.NewDense(k, k, nil)
	huGram := mat.NewDense(k, k, nil)
	xsHsT := mat.NewDense(n, k, nil)
	xuHuT := mat.NewDense(n, k, nil)
	wHsGram := mat.NewDense(n, k, nil)
	wHuGram := mat.NewDense(n, k, nil)

	objective := make([]float64, 0, cfg.MaxIter)

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		// The two per-view updates are independent given the cached W
		// products.
		parallel.Do(
			func() { updateH(hs, wtxs, wtw, hsDen, alpha, cfg.Lambda) },
			func() { updateH(hu, wtxu, wtw, huDen, gamma, cfg.Lambda) },
		)

		// W update with the freshly updated Hs, Hu.
		hsGram.Mul(hs, hs.T())
		huGram.Mul(hu, hu.T())
		xsHsT.Mul(xs, hs.T())
		xuHuT.Mul(xu, hu.T())
		wHsGram.Mul(w, hsGram)
		wHuGram.Mul(w, huGram)

		for i := 0; i < n; i++ {
			wRow := w.RawRowView(i)
			numS := xsHsT.RawRowView(i)
			numU := xuHuT.RawRowView(i)
			denS := wHsGram.RawRowView(i)
			denU := wHuGram.RawRowView(i)
			var awRow, dwRow []float64
			if adj != nil {
				awRow = aw.RawRowView(i)
				dwRow = dw.RawRowView(i)
			}
			for j := 0; j < k; j++ {
				num := alpha*numS[j] + gamma*numU[j]
				den := alpha*denS[j] + gamma*denU[j] + cfg.Lambda*wRow[j]
				if adj != nil {
					num += beta * awRow[j]
					den += beta * dwRow[j]
				}
				if den < floor {
					den = floor
				}
				wRow[j] *= num / den
			}
		}

		// Refresh cached products for the objective and the next iteration.
		wtw.Mul(w.T(), w)
		wtxs.Mul(w.T(), xs)
		wtxu.Mul(w.T(), xu)
		if adj != nil {
			adj.MulDense(w, aw)
			scaleRows(dw, w, degrees)
		}

		obj := alpha*(trXs-2*traceInner(hs, wtxs)+traceInner(wtw, hsGram)) +
			gamma*(trXu-2*traceInner(hu, wtxu)+traceInner(wtw, huGram)) +
			cfg.Lambda*(traceInner(w, w)+traceInner(hs, hs)+traceInner(hu, hu))
		if adj != nil {
			obj += beta * (traceInner(w, dw) - traceInner(w, aw))
		}
		objective = append(objective, obj)

		var delta float64
		if iter >= 2 {
			prev := objective[len(objective)-2]
			delta = math.Abs(obj - prev)
			if obj > prev+increaseTolerance*math.Max(1, math.Abs(prev)) {
				logger.Warn("objective increased",
					zap.Int("iteration", iter),
					zap.Float64("objective", obj),
					zap.Float64("previous", prev))
			}
		}

		if cfg.Verbose {
			fields := []zap.Field{
				zap.Int("iteration", iter),
				zap.Float64("objective", obj),
			}
			if iter >= 2 {
				fields = append(fields, zap.Float64("delta", delta))
			}
			logger.Info("factorize", fields...)
		}
		if cfg.ProgressCallback != nil {
			cfg.ProgressCallback(iter, cfg.MaxIter)
		}

		if iter >= 2 && delta <= cfg.Epsilon {
			break
		}
	}

	return &Result{W: w, Hs: hs, Hu: hu, Objective: objective}, nil
}

// updateH applies the multiplicative rule
// h <- h * (weight * WtX) / (weight * WtW * h + lambda * h) entry-wise,
// with the denominator clamped at floor.
func updateH(h, wtx, wtw, den *mat.Dense, weight, lambda float64) {
	den.Mul(wtw, h)
	r, c := h.Dims()
	for i := 0; i < r; i++ {
		hRow := h.RawRowView(i)
		numRow := wtx.RawRowView(i)
		denRow := den.RawRowView(i)
		for j := 0; j < c; j++ {
			d := weight*denRow[j] + lambda*hRow[j]
			if d < floor {
				d = floor
			}
			hRow[j] *= weight * numRow[j] / d
		}
	}
}

// randomFactor returns an r x c matrix of absolute values of seeded
// uniform draws.
func randomFactor(r, c int, rng *rand.MT19937) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = math.Abs(rng.Uniform(-1, 1))
	}
	return mat.NewDense(r, c, data)
}

// scaleRows sets dst row i to scale[i] * src row i.
func scaleRows(dst, src *mat.Dense, scale []float64) {
	r, c := src.Dims()
	for i := 0; i < r; i++ {
		s := scale[i]
		d := dst.RawRowView(i)
		v := src.RawRowView(i)
		for j := 0; j < c; j++ {
			d[j] = s * v[j]
		}
	}
}

func validate(xs, xu *mat.Dense, cfg Config) error {
	n, v1 := xs.Dims()
	nu, v2 := xu.Dims()
	if n != nu {
		return errors.Annotatef(ErrDimensionMismatch, "Xs has %d rows, Xu has %d", n, nu)
	}
	if cfg.Rank < 1 || cfg.Rank > minInt(n, v1, v2) {
		return errors.Annotatef(ErrDimensionMismatch,
			"rank %d outside [1, min(%d, %d, %d)]", cfg.Rank, n, v1, v2)
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return errors.Annotatef(ErrInvalidHyperparameter, "alpha %v outside [0,1]", cfg.Alpha)
	}
	if cfg.Lambda < 0 {
		return errors.Annotatef(ErrInvalidHyperparameter, "lambda %v is negative", cfg.Lambda)
	}
	if cfg.Epsilon <= 0 {
		return errors.Annotatef(ErrInvalidHyperparameter, "epsilon %v is not positive", cfg.Epsilon)
	}
	if cfg.MaxIter < 1 {
		return errors.Annotatef(ErrInvalidHyperparameter, "maxIter %d is not positive", cfg.MaxIter)
	}
	if cfg.Graph != nil {
		if cfg.Graph.Adjacency == nil {
			return errors.Annotatef(ErrInvalidHyperparameter, "graph regularization without adjacency")
		}
		if cfg.Graph.Weight < 0 {
			return errors.Annotatef(ErrInvalidHyperparameter, "beta %v is negative", cfg.Graph.Weight)
		}
		a := cfg.Graph.Adjacency
		if a.NRows != n || a.NCols != n {
			return errors.Annotatef(ErrDimensionMismatch,
				"adjacency is %dx%d, want %dx%d", a.NRows, a.NCols, n, n)
		}
	}
	if i, j, ok := firstNegative(xs); ok {
		return errors.Annotatef(ErrNegativeInput, "Xs[%d,%d]", i, j)
	}
	if i, j, ok := firstNegative(xu); ok {
		return errors.Annotatef(ErrNegativeInput, "Xu[%d,%d]", i, j)
	}
	return nil
}

func firstNegative(x *mat.Dense) (int, int, bool) {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		row := x.RawRowView(i)
		for j := 0; j < c; j++ {
			if row[j] < 0 {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
