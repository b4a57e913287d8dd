// Package tfidf provides TF-IDF weighting of document-term count matrices.
package tfidf

import (
	"math"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrVocabularyMismatch indicates a matrix with a different vocabulary size
// than the one the transformer was fitted on.
const ErrVocabularyMismatch = errors.ConstError("tfidf: vocabulary size mismatch")

// Transformer holds inverse document frequencies learned from a training
// corpus. Weights learned on training documents are applied unchanged to
// held-out documents.
type Transformer struct {
	idf []float64
}

// Fit learns smoothed IDF weights from a document-term count matrix,
// idf[t] = log((1+n) / (1+df[t])) + 1.
func Fit(counts *mat.Dense) *Transformer {
	n, v := counts.Dims()
	df := make([]int, v)
	for i := 0; i < n; i++ {
		row := counts.RawRowView(i)
		for j, c := range row {
			if c > 0 {
				df[j]++
			}
		}
	}

	idf := make([]float64, v)
	for j := range idf {
		idf[j] = math.Log(float64(1+n)/float64(1+df[j])) + 1
	}
	return &Transformer{idf: idf}
}

// Transform applies the learned weights to a count matrix over the same
// vocabulary.
func (t *Transformer) Transform(counts *mat.Dense) (*mat.Dense, error) {
	n, v := counts.Dims()
	if v != len(t.idf) {
		return nil, errors.Annotatef(ErrVocabularyMismatch,
			"matrix has %d terms, transformer was fitted on %d", v, len(t.idf))
	}

	out := mat.NewDense(n, v, nil)
	for i := 0; i < n; i++ {
		src := counts.RawRowView(i)
		dst := out.RawRowView(i)
		for j, c := range src {
			dst[j] = c * t.idf[j]
		}
	}
	return out, nil
}
