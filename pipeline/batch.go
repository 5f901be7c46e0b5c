package pipeline

import "context"

// Batch groups consecutive values into slices of up to size values.
// The final partial batch is emitted when the source is exhausted.
// A size below 1 defaults to 1.
func Batch[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	if size < 1 {
		size = 1
	}
	return &Pipeline[[]T]{
		create: func(ctx context.Context) Iterator[[]T] {
			return &batchIter[T]{source: p.create(ctx), size: size}
		},
	}
}

type batchIter[T any] struct {
	source Iterator[T]
	size   int
	done   bool
}

func (it *batchIter[T]) Next(ctx context.Context) (result []T, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}

	batch := make([]T, 0, it.size)
	for len(batch) < it.size {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *batchIter[T]) Close() error { return it.source.Close() }
