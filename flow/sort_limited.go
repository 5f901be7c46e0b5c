package flow

import (
	"cmp"

	"github.com/kbukum/flowkit/buffer"
	"github.com/kbukum/flowkit/pipeline"
)

type ranked struct {
	item Item
	seq  int
}

// topK keeps the k best elements seen so far in a heap whose root is the
// worst kept element. Ties are broken by arrival order, so the selection is
// the prefix a stable sort would produce.
type topK struct {
	ordering Ordering
	invert   bool
	heap     *buffer.Heap[ranked]
	seq      int
	err      error
}

func newTopK(ord Ordering, k int, invert bool) *topK {
	t := &topK{ordering: ord, invert: invert}
	t.heap = buffer.NewHeap(k, func(a, b ranked) bool { return t.rank(a, b) > 0 })
	return t
}

func (t *topK) rank(a, b ranked) int {
	c, err := t.ordering.compare(a.item, b.item)
	if err != nil && t.err == nil {
		t.err = err
	}
	if c == 0 {
		c = cmp.Compare(a.seq, b.seq)
	}
	if t.invert {
		c = -c
	}
	return c
}

func (t *topK) offer(it Item) error {
	t.heap.Offer(ranked{item: it, seq: t.seq})
	t.seq++
	return t.err
}

// drain returns the kept elements best first.
func (t *topK) drain() []Item {
	kept := t.heap.Drain()
	out := make([]Item, len(kept))
	for i, r := range kept {
		out[len(kept)-1-i] = r.item
	}
	return out
}

// sortLimitedOp is Sort followed by Limit(k) in O(k) memory. With invert
// set it selects the k elements a stable sort would put last, emitted last
// first.
type sortLimitedOp struct {
	link
	ordering Ordering
	k        int
	invert   bool
	top      *topK
}

func (o *sortLimitedOp) Kind() Kind { return KindSortLimited }

func (o *sortLimitedOp) Prepare() error {
	o.ordering = o.ordering.resolve()
	return nil
}

func (o *sortLimitedOp) Start(sig *Signal) error {
	o.top = newTopK(o.ordering, o.k, o.invert)
	if o.k == 0 {
		sig.Stop()
	}
	return nil
}

func (o *sortLimitedOp) Handle(sig *Signal) error {
	if o.k == 0 {
		return nil
	}
	return o.top.offer(sig.Cursor().Snapshot())
}

func (o *sortLimitedOp) StreamingFinished(sig *Signal) (bool, error) {
	items := o.top.drain()
	if len(items) == 0 {
		return finish(o.next, sig)
	}
	sig.RestartFrom(o.next, items)
	return true, nil
}

func (o *sortLimitedOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	if o.k == 0 {
		return pipeline.Empty[Item](), nil
	}
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		top := newTopK(o.ordering, o.k, o.invert)
		for _, it := range items {
			if err := top.offer(it); err != nil {
				return nil, err
			}
		}
		return top.drain(), nil
	}), nil
}
