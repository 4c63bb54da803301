package pipeline

import "container/heap"

// reorderBuffer is the sequence-gated min-heap: since workers finish
// chunks out of order, this buffers the early arrivals and releases them
// to the inserter strictly in Seq order, starting at nextSeq.
type reorderBuffer struct {
	heap resultHeap
	nextSeq uint64
}

func newReorderBuffer(startSeq uint64) *reorderBuffer {
	return &reorderBuffer{nextSeq: startSeq}
}

// push adds a completed Result. ready returns every Result now releasable
// in order, draining as many contiguous sequence numbers as are buffered.
func (r *reorderBuffer) push(res Result) []Result {
	heap.Push(&r.heap, res)
	var ready []Result
	for len(r.heap) > 0 && r.heap[0].Seq == r.nextSeq {
		ready = append(ready, heap.Pop(&r.heap).(Result)) //nolint:forcetypeassert
		r.nextSeq++
	}
	return ready
}

// pending reports how many results are buffered waiting for a gap to fill.
func (r *reorderBuffer) pending() int {
	return len(r.heap)
}

type resultHeap []Result

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].Seq < h[j].Seq }
func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any) { *h = append(*h, x.(Result)) } //nolint:forcetypeassert
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
