// Package buffer provides the single-goroutine containers used by bounded
// stream operators: a fixed-capacity Ring holding the most recent values and
// a capacity-bounded binary Heap ordered by a caller-supplied function.
package buffer
