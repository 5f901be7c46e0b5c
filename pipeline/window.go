package pipeline

import "context"

// SlidingWindow emits windows of size consecutive values, starting a new
// window every step values. A window is emitted as soon as it is full.
// When the source ends inside a window that has not been emitted, that
// partial window is emitted last. Windows are fresh slices.
//
// size and step below 1 default to 1.
func SlidingWindow[T any](p *Pipeline[T], size, step int) *Pipeline[[]T] {
	if size < 1 {
		size = 1
	}
	if step < 1 {
		step = 1
	}
	return &Pipeline[[]T]{
		create: func(ctx context.Context) Iterator[[]T] {
			return &slidingWindowIter[T]{source: p.create(ctx), size: size, step: step}
		},
	}
}

type slidingWindowIter[T any] struct {
	source Iterator[T]
	size   int
	step   int

	recent  []T // last size values, oldest first
	count   int // values pulled
	emitted int // windows emitted
	done    bool
	flushed bool
}

func (it *slidingWindowIter[T]) Next(ctx context.Context) (result []T, ok bool, err error) {
	for !it.done {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		it.count++
		it.recent = append(it.recent, val)
		if len(it.recent) > it.size {
			it.recent = it.recent[1:]
		}
		if it.count >= it.size && (it.count-it.size)%it.step == 0 {
			it.emitted++
			return append([]T(nil), it.recent...), true, nil
		}
	}

	if it.flushed {
		return nil, false, nil
	}
	it.flushed = true
	start, ok := PendingWindow(it.count, it.emitted, it.size, it.step)
	if !ok {
		return nil, false, nil
	}
	pending := it.count - start + 1
	return append([]T(nil), it.recent[len(it.recent)-pending:]...), true, nil
}

func (it *slidingWindowIter[T]) Close() error { return it.source.Close() }

// PendingWindow reports the 1-based start position of the partial window
// left when a source of count values ends after emitted full windows. ok is
// false when no such window exists or every value it would hold was already
// part of an emitted window.
func PendingWindow(count, emitted, size, step int) (start int, ok bool) {
	start = emitted*step + 1
	if start > count {
		return 0, false
	}
	if emitted > 0 && count <= (emitted-1)*step+size {
		return 0, false
	}
	return start, true
}
