package pipeline

import "context"

// Materialize pulls every value, passes the complete slice to fn and yields
// the values fn returns. Nothing is yielded before the source is exhausted.
func Materialize[T any](p *Pipeline[T], fn func([]T) ([]T, error)) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &materializeIter[T]{source: p.create(ctx), fn: fn}
		},
	}
}

type materializeIter[T any] struct {
	source Iterator[T]
	fn     func([]T) ([]T, error)
	out    []T
	filled bool
}

func (it *materializeIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if !it.filled {
		var all []T
		for {
			val, ok, err := it.source.Next(ctx)
			if err != nil {
				return zero, false, err
			}
			if !ok {
				break
			}
			all = append(all, val)
		}
		out, err := it.fn(all)
		if err != nil {
			return zero, false, err
		}
		it.out = out
		it.filled = true
	}
	if len(it.out) == 0 {
		return zero, false, nil
	}
	val := it.out[0]
	it.out = it.out[1:]
	return val, true, nil
}

func (it *materializeIter[T]) Close() error { return it.source.Close() }
