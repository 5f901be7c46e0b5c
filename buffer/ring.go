package buffer

// Ring is a fixed-capacity circular buffer that keeps the most recent
// values. It starts filling and, once full, overwrites the oldest value on
// every Push. Not safe for concurrent use.
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest value once full
	full bool
}

// NewRing returns an empty ring. A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, 0, capacity)}
}

// Push appends v, evicting the oldest value when the ring is full.
// It reports the evicted value, if any.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if !r.full {
		r.buf = append(r.buf, v)
		if len(r.buf) == cap(r.buf) {
			r.full = true
		}
		return evicted, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	return evicted, true
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int { return len(r.buf) }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return cap(r.buf) }

// Full reports whether the next Push overwrites.
func (r *Ring[T]) Full() bool { return r.full }

// Items returns a copy of the held values, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)
	return append(out, r.buf[:r.head]...)
}

// Last returns a copy of the n most recent values, oldest first.
// n is clamped to Len.
func (r *Ring[T]) Last(n int) []T {
	items := r.Items()
	if n > len(items) {
		n = len(items)
	}
	if n < 0 {
		n = 0
	}
	return items[len(items)-n:]
}

// Reset empties the ring, keeping its capacity.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.buf = r.buf[:0]
	r.head = 0
	r.full = false
}
