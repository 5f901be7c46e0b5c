package pipeline

import (
	"context"
	"iter"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy description of a chain of iterators. Every call to
// Iter builds fresh iterator state.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// FromFunc creates a pipeline from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// Empty creates a pipeline that yields nothing.
func Empty[T any]() *Pipeline[T] {
	return FromSlice[T](nil)
}

// Iter returns the iterator for this pipeline. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

// Collect pulls every value into a slice. Values pulled before an error
// are returned with it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	for val, err := range Seq(ctx, p.Iter(ctx)) {
		if err != nil {
			return out, err
		}
		out = append(out, val)
	}
	return out, nil
}

// Seq adapts an iterator to a range-over-func sequence. A non-nil error is
// yielded once and ends the sequence. The iterator is closed when the
// sequence ends or the loop breaks.
func Seq[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer it.Close()
		for {
			val, ok, err := it.Next(ctx)
			if err != nil {
				yield(val, err)
				return
			}
			if !ok || !yield(val, nil) {
				return
			}
		}
	}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.index >= len(it.items) {
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }
