package pipeline

import "context"

// Skip drops the first n values.
func Skip[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &skipIter[T]{source: p.create(ctx), remaining: n}
		},
	}
}

// SkipWhile drops values while fn holds, then passes everything through.
func SkipWhile[T any](p *Pipeline[T], fn func(context.Context, T) (bool, error)) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &skipWhileIter[T]{source: p.create(ctx), fn: fn}
		},
	}
}

// Take yields at most n values. The source is not pulled once n values
// were yielded.
func Take[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &takeIter[T]{source: p.create(ctx), remaining: n}
		},
	}
}

// TakeWhile yields values while fn holds and stops at the first failure.
func TakeWhile[T any](p *Pipeline[T], fn func(context.Context, T) (bool, error)) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &takeWhileIter[T]{source: p.create(ctx), fn: fn}
		},
	}
}

type skipIter[T any] struct {
	source    Iterator[T]
	remaining int
}

func (it *skipIter[T]) Next(ctx context.Context) (T, bool, error) {
	for it.remaining > 0 {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		it.remaining--
	}
	return it.source.Next(ctx)
}

func (it *skipIter[T]) Close() error { return it.source.Close() }

type skipWhileIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) (bool, error)
	done   bool
}

func (it *skipWhileIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok || it.done {
			return val, ok, err
		}
		skip, err := it.fn(ctx, val)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !skip {
			it.done = true
			return val, true, nil
		}
	}
}

func (it *skipWhileIter[T]) Close() error { return it.source.Close() }

type takeIter[T any] struct {
	source    Iterator[T]
	remaining int
}

func (it *takeIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, false, err
	}
	it.remaining--
	return val, true, nil
}

func (it *takeIter[T]) Close() error { return it.source.Close() }

type takeWhileIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) (bool, error)
	done   bool
}

func (it *takeWhileIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, false, err
	}
	keep, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	if !keep {
		it.done = true
		return zero, false, nil
	}
	return val, true, nil
}

func (it *takeWhileIter[T]) Close() error { return it.source.Close() }
