// Package eval provides ranking-quality metrics for label prediction.
package eval

import (
	"math"
	"sort"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// ErrDimensionMismatch indicates scores and relevance have different shapes.
	ErrDimensionMismatch = errors.ConstError("eval: dimension mismatch")

	// ErrNoRelevant indicates the relevance matrix has no positive entries.
	ErrNoRelevant = errors.ConstError("eval: no relevant entries")
)

// NDCG computes the mean Normalized Discounted Cumulative Gain of the
// rankings induced by descending scores against binary relevance, averaged
// over rows that have at least one relevant entry. The result is in [0,1]
// and equals 1 when every row ranks all its relevant items first.
func NDCG(scores, truth *mat.Dense) (float64, error) {
	rs, cs := scores.Dims()
	rt, ct := truth.Dims()
	if rs != rt || cs != ct {
		return 0, errors.Annotatef(ErrDimensionMismatch,
			"scores are %dx%d, relevance is %dx%d", rs, cs, rt, ct)
	}

	var total float64
	rows := 0
	for i := 0; i < rs; i++ {
		rel := truth.RawRowView(i)
		numRel := 0
		for _, v := range rel {
			if v > 0 {
				numRel++
			}
		}
		if numRel == 0 {
			continue
		}

		order := rankDescending(scores.RawRowView(i))

		var dcg float64
		for pos, j := range order {
			if rel[j] > 0 {
				dcg += 1 / math.Log2(float64(pos)+2)
			}
		}
		var idcg float64
		for pos := 0; pos < numRel; pos++ {
			idcg += 1 / math.Log2(float64(pos)+2)
		}

		total += dcg / idcg
		rows++
	}

	if rows == 0 {
		return 0, ErrNoRelevant
	}
	return total / float64(rows), nil
}

// rankDescending returns column indices ordered by descending score.
// Ties keep the lower index first, so results are deterministic.
func rankDescending(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}
