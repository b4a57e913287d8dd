// Package heap provides a fixed-capacity min-heap for top-k similarity tracking.
package heap

// TopK keeps the k largest similarities pushed into it.
// The smallest kept similarity is always at the root (index 0).
type TopK struct {
	Indices []int32
	Sims    []float64
	Size    int
	K       int
}

// New creates a new top-k tracker with capacity k.
func New(k int) *TopK {
	h := &TopK{
		Indices: make([]int32, k),
		Sims:    make([]float64, k),
		Size:    0,
		K:       k,
	}
	for i := 0; i < k; i++ {
		h.Indices[i] = -1
		h.Sims[i] = -1e30
	}
	return h
}

// Push attempts to add a candidate. Returns true if the candidate was kept
// (it was larger than the current smallest kept similarity).
func (h *TopK) Push(idx int32, sim float64) bool {
	if sim <= h.Sims[0] && h.Size == h.K {
		return false
	}

	h.Sims[0] = sim
	h.Indices[0] = idx
	h.siftDown(0)

	if h.Size < h.K {
		h.Size++
	}

	return true
}

// siftDown restores the min-heap property after replacing the root.
func (h *TopK) siftDown(i int) {
	for {
		left := 2*i + 1
		right := 2*i + 2

		if left >= h.K {
			break
		}

		swap := i
		if h.Sims[left] < h.Sims[swap] {
			swap = left
		}
		if right < h.K && h.Sims[right] < h.Sims[swap] {
			swap = right
		}

		if swap == i {
			break
		}

		h.Sims[i], h.Sims[swap] = h.Sims[swap], h.Sims[i]
		h.Indices[i], h.Indices[swap] = h.Indices[swap], h.Indices[i]
		i = swap
	}
}

// Sort reorders the kept entries in descending similarity order.
// After sorting, the heap property is no longer maintained.
func (h *TopK) Sort() {
	for i := h.K - 1; i > 0; i-- {
		h.Sims[0], h.Sims[i] = h.Sims[i], h.Sims[0]
		h.Indices[0], h.Indices[i] = h.Indices[i], h.Indices[0]
		h.siftDownN(0, i)
	}
}

// siftDownN is siftDown limited to the first n elements.
func (h *TopK) siftDownN(i, n int) {
	for {
		left := 2*i + 1
		right := 2*i + 2

		if left >= n {
			break
		}

		swap := i
		if h.Sims[left] < h.Sims[swap] {
			swap = left
		}
		if right < n && h.Sims[right] < h.Sims[swap] {
			swap = right
		}

		if swap == i {
			break
		}

		h.Sims[i], h.Sims[swap] = h.Sims[swap], h.Sims[i]
		h.Indices[i], h.Indices[swap] = h.Indices[swap], h.Indices[i]
		i = swap
	}
}
