package buffer

import "container/heap"

// Heap is a binary heap holding at most Limit values. The root is the value
// for which less reports true against every other value. Not safe for
// concurrent use.
//
// With less(a, b) meaning "a ranks worse than b", the root is the worst
// kept value and Offer implements top-k selection.
type Heap[T any] struct {
	h     heapSlice[T]
	limit int
}

// NewHeap returns an empty heap bounded to limit values. A limit of zero
// or less means unbounded.
func NewHeap[T any](limit int, less func(a, b T) bool) *Heap[T] {
	if limit < 0 {
		limit = 0
	}
	return &Heap[T]{h: heapSlice[T]{less: less}, limit: limit}
}

// Len returns the number of values held.
func (h *Heap[T]) Len() int { return len(h.h.items) }

// Push adds v regardless of the limit.
func (h *Heap[T]) Push(v T) { heap.Push(&h.h, v) }

// Peek returns the root value.
func (h *Heap[T]) Peek() (T, bool) {
	if len(h.h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.h.items[0], true
}

// Pop removes and returns the root value.
func (h *Heap[T]) Pop() (T, bool) {
	if len(h.h.items) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&h.h).(T), true
}

// Offer adds v while the heap is below its limit. Once full, v replaces the
// root only when less(root, v) holds, and the evicted root is returned.
// accepted reports whether v is now held.
func (h *Heap[T]) Offer(v T) (evicted T, accepted bool) {
	if h.limit == 0 || len(h.h.items) < h.limit {
		heap.Push(&h.h, v)
		return evicted, true
	}
	root := h.h.items[0]
	if !h.h.less(root, v) {
		return evicted, false
	}
	h.h.items[0] = v
	heap.Fix(&h.h, 0)
	return root, true
}

// Drain removes every value in root-first order.
func (h *Heap[T]) Drain() []T {
	out := make([]T, 0, len(h.h.items))
	for len(h.h.items) > 0 {
		out = append(out, heap.Pop(&h.h).(T))
	}
	return out
}

// heapSlice implements heap.Interface.
type heapSlice[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (s *heapSlice[T]) Len() int           { return len(s.items) }
func (s *heapSlice[T]) Less(i, j int) bool { return s.less(s.items[i], s.items[j]) }
func (s *heapSlice[T]) Swap(i, j int)      { s.items[i], s.items[j] = s.items[j], s.items[i] }

func (s *heapSlice[T]) Push(x any) {
	s.items = append(s.items, x.(T))
}

func (s *heapSlice[T]) Pop() any {
	old := s.items
	n := len(old)
	x := old[n-1]
	var zero T
	old[n-1] = zero
	s.items = old[:n-1]
	return x
}
