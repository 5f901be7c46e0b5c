package flow

import (
	"bufio"
	"context"
	"io"
	"iter"
	"slices"

	"github.com/kbukum/flowkit/pipeline"
)

// Source supplies elements to a run. Next fills c with the next element
// and reports false once the source is exhausted.
type Source interface {
	Next(ctx context.Context, c *Cursor) (bool, error)
}

// Counter is implemented by sources that know their size without being
// consumed.
type Counter interface {
	Count() int
}

// LastReader is implemented by sources that can return their last element
// without being consumed.
type LastReader interface {
	Last() (Item, bool)
}

// FromItems returns a source replaying items in order.
func FromItems(items []Item) Source {
	return &itemSource{items: items}
}

type itemSource struct {
	items []Item
	pos   int
}

func (s *itemSource) Next(_ context.Context, c *Cursor) (bool, error) {
	if s.pos >= len(s.items) {
		return false, nil
	}
	c.Load(s.items[s.pos])
	s.pos++
	return true, nil
}

func (s *itemSource) Count() int { return len(s.items) }

func (s *itemSource) Last() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[len(s.items)-1], true
}

// FromSlice returns a source over values keyed by position.
func FromSlice[T any](values []T) Source {
	return &sliceSource[T]{values: values}
}

type sliceSource[T any] struct {
	values []T
	pos    int
}

func (s *sliceSource[T]) Next(_ context.Context, c *Cursor) (bool, error) {
	if s.pos >= len(s.values) {
		return false, nil
	}
	c.Set(IntKey(s.pos), s.values[s.pos])
	s.pos++
	return true, nil
}

func (s *sliceSource[T]) Count() int { return len(s.values) }

func (s *sliceSource[T]) Last() (Item, bool) {
	n := len(s.values)
	if n == 0 {
		return Item{}, false
	}
	return NewItem(IntKey(n-1), s.values[n-1]), true
}

// FromMap returns a source over m in ascending key order.
func FromMap[K string | int, V any](m map[K]V) Source {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	items := make([]Item, len(keys))
	for i, k := range keys {
		key, _ := KeyOf(k)
		items[i] = NewItem(key, m[k])
	}
	return FromItems(items)
}

// FromFunc returns a source calling fn for every element until fn reports
// false. Elements are keyed by position.
func FromFunc(fn func() (value any, ok bool, err error)) Source {
	return &funcSource{fn: fn}
}

type funcSource struct {
	fn  func() (any, bool, error)
	pos int
}

func (s *funcSource) Next(_ context.Context, c *Cursor) (bool, error) {
	v, ok, err := s.fn()
	if err != nil || !ok {
		return false, err
	}
	c.Set(IntKey(s.pos), v)
	s.pos++
	return true, nil
}

// Recursive returns a source emitting seed, then fn(seed), then fn applied
// to that, until fn reports false. A fn that never reports false produces
// an endless source.
func Recursive(seed any, fn func(prev any) (next any, ok bool, err error)) Source {
	started := false
	prev := seed
	return FromFunc(func() (any, bool, error) {
		if !started {
			started = true
			return prev, true, nil
		}
		next, ok, err := fn(prev)
		if err != nil || !ok {
			return nil, false, err
		}
		prev = next
		return next, true, nil
	})
}

// FromSeq returns a source over a range-over-func sequence keyed by
// position.
func FromSeq[T any](seq iter.Seq[T]) Source {
	return &seqSource[T]{seq: seq}
}

type seqSource[T any] struct {
	seq  iter.Seq[T]
	next func() (T, bool)
	stop func()
	pos  int
}

func (s *seqSource[T]) Next(_ context.Context, c *Cursor) (bool, error) {
	if s.next == nil {
		s.next, s.stop = iter.Pull(s.seq)
	}
	v, ok := s.next()
	if !ok {
		return false, nil
	}
	c.Set(IntKey(s.pos), v)
	s.pos++
	return true, nil
}

func (s *seqSource[T]) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return nil
}

// FromSeq2 returns a source over a key/value range-over-func sequence.
func FromSeq2[K string | int, V any](seq iter.Seq2[K, V]) Source {
	return &seq2Source[K, V]{seq: seq}
}

type seq2Source[K string | int, V any] struct {
	seq  iter.Seq2[K, V]
	next func() (K, V, bool)
	stop func()
}

func (s *seq2Source[K, V]) Next(_ context.Context, c *Cursor) (bool, error) {
	if s.next == nil {
		s.next, s.stop = iter.Pull2(s.seq)
	}
	k, v, ok := s.next()
	if !ok {
		return false, nil
	}
	key, err := KeyOf(k)
	if err != nil {
		return false, err
	}
	c.Set(key, v)
	return true, nil
}

func (s *seq2Source[K, V]) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return nil
}

// FromIterator returns a source over a pull iterator keyed by position.
// The iterator is closed when the run ends.
func FromIterator[T any](it pipeline.Iterator[T]) Source {
	return &iteratorSource[T]{it: it}
}

type iteratorSource[T any] struct {
	it  pipeline.Iterator[T]
	pos int
}

func (s *iteratorSource[T]) Next(ctx context.Context, c *Cursor) (bool, error) {
	v, ok, err := s.it.Next(ctx)
	if err != nil || !ok {
		return false, err
	}
	c.Set(IntKey(s.pos), v)
	s.pos++
	return true, nil
}

func (s *iteratorSource[T]) Close() error { return s.it.Close() }

// FromReader returns a source over the lines of r keyed by line number.
// Line terminators are stripped.
func FromReader(r io.Reader) Source {
	return &readerSource{scanner: bufio.NewScanner(r)}
}

type readerSource struct {
	scanner *bufio.Scanner
	pos     int
}

func (s *readerSource) Next(_ context.Context, c *Cursor) (bool, error) {
	if !s.scanner.Scan() {
		return false, s.scanner.Err()
	}
	c.Set(IntKey(s.pos), s.scanner.Text())
	s.pos++
	return true, nil
}

// FromStream returns a source over the output of another stream. The
// stream runs lazily, one element per pull.
func FromStream(s *Stream) Source {
	return &streamSource{stream: s}
}

type streamSource struct {
	stream *Stream
	it     *Iterator
}

func (s *streamSource) Next(ctx context.Context, c *Cursor) (bool, error) {
	if s.it == nil {
		s.it = s.stream.Iterator()
	}
	item, ok, err := s.it.Next(ctx)
	if err != nil || !ok {
		return false, err
	}
	c.Load(item)
	return true, nil
}

func (s *streamSource) Close() error {
	if s.it == nil {
		return nil
	}
	return s.it.Close()
}

// queueSource hands out items appended by a feeding operation.
type queueSource struct {
	items []Item
}

func (s *queueSource) push(it Item) { s.items = append(s.items, it) }

func (s *queueSource) Next(_ context.Context, c *Cursor) (bool, error) {
	if len(s.items) == 0 {
		return false, nil
	}
	c.Load(s.items[0])
	s.items[0] = Item{}
	s.items = s.items[1:]
	return true, nil
}

func closeSource(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// sourcePipeline adapts a source to a pull pipeline of snapshots.
func sourcePipeline(src Source) *pipeline.Pipeline[Item] {
	return pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[Item] {
		return &sourceIter{src: src}
	})
}

type sourceIter struct {
	src    Source
	cursor Cursor
}

func (it *sourceIter) Next(ctx context.Context) (Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, false, err
	}
	ok, err := it.src.Next(ctx, &it.cursor)
	if err != nil || !ok {
		return Item{}, false, err
	}
	return it.cursor.Snapshot(), true, nil
}

func (it *sourceIter) Close() error { return closeSource(it.src) }
