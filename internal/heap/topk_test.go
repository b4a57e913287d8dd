package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nozzle/lce/internal/heap"
)

func TestTopKKeepsLargest(t *testing.T) {
	h := heap.New(3)
	sims := []float64{0.1, 0.9, 0.3, 0.7, 0.5, 0.2}
	for i, s := range sims {
		h.Push(int32(i), s)
	}

	require.Equal(t, 3, h.Size)
	h.Sort()

	require.Equal(t, []float64{0.9, 0.7, 0.5}, h.Sims)
	require.Equal(t, []int32{1, 3, 4}, h.Indices)
}

func TestTopKFewerCandidatesThanK(t *testing.T) {
	h := heap.New(4)
	h.Push(0, 0.2)
	h.Push(1, 0.8)

	require.Equal(t, 2, h.Size)
	h.Sort()

	require.Equal(t, int32(1), h.Indices[0])
	require.Equal(t, int32(0), h.Indices[1])
}
