package flow

import (
	"math/rand/v2"
	"slices"

	"github.com/kbukum/flowkit/buffer"
	"github.com/kbukum/flowkit/pipeline"
)

// collector is the buffering half shared by the replaying operators: it
// keeps a snapshot of every element and hands the transformed list to the
// next node once the input ends.
type collector struct {
	link
	items []Item
}

func (o *collector) Start(*Signal) error {
	o.items = nil
	return nil
}

func (o *collector) Handle(sig *Signal) error {
	o.items = append(o.items, sig.Cursor().Snapshot())
	return nil
}

func (o *collector) replay(sig *Signal, items []Item) (bool, error) {
	o.items = nil
	if len(items) == 0 {
		return finish(o.next, sig)
	}
	sig.RestartFrom(o.next, items)
	return true, nil
}

// --- Reverse ---

type reverseOp struct{ collector }

func (o *reverseOp) Kind() Kind { return KindReverse }

func (o *reverseOp) StreamingFinished(sig *Signal) (bool, error) {
	slices.Reverse(o.items)
	return o.replay(sig, o.items)
}

func (o *reverseOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		slices.Reverse(items)
		return items, nil
	}), nil
}

// --- Shuffle ---

type shuffleOp struct {
	collector
	rng *rand.Rand // nil uses the global source
}

func (o *shuffleOp) Kind() Kind { return KindShuffle }

func (o *shuffleOp) shuffle(items []Item) []Item {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if o.rng != nil {
		o.rng.Shuffle(len(items), swap)
	} else {
		rand.Shuffle(len(items), swap)
	}
	return items
}

func (o *shuffleOp) StreamingFinished(sig *Signal) (bool, error) {
	return o.replay(sig, o.shuffle(o.items))
}

func (o *shuffleOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		return o.shuffle(items), nil
	}), nil
}

// --- Sort ---

type sortOp struct {
	collector
	ordering Ordering
}

func (o *sortOp) Kind() Kind { return KindSort }

func (o *sortOp) Prepare() error {
	o.ordering = o.ordering.resolve()
	return nil
}

func (o *sortOp) StreamingFinished(sig *Signal) (bool, error) {
	if err := sortItems(o.items, o.ordering); err != nil {
		return false, err
	}
	return o.replay(sig, o.items)
}

func (o *sortOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		return items, sortItems(items, o.ordering)
	}), nil
}

// sortItems sorts items stably and returns the first comparison error.
func sortItems(items []Item, ord Ordering) error {
	var first error
	slices.SortStableFunc(items, func(a, b Item) int {
		c, err := ord.compare(a, b)
		if err != nil && first == nil {
			first = err
		}
		return c
	})
	return first
}

// --- Tail ---

// tailOp keeps the last n elements in a ring and replays them in arrival
// order once the input ends.
type tailOp struct {
	link
	n    int
	ring *buffer.Ring[Item]
}

func (o *tailOp) Kind() Kind { return KindTail }

func (o *tailOp) Start(*Signal) error {
	o.ring = buffer.NewRing[Item](o.n)
	return nil
}

func (o *tailOp) Handle(sig *Signal) error {
	o.ring.Push(sig.Cursor().Snapshot())
	return nil
}

func (o *tailOp) StreamingFinished(sig *Signal) (bool, error) {
	if o.ring.Len() == 0 {
		return finish(o.next, sig)
	}
	items := o.ring.Items()
	o.ring.Reset()
	sig.RestartFrom(o.next, items)
	return true, nil
}

func (o *tailOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		if len(items) > o.n {
			items = items[len(items)-o.n:]
		}
		return items, nil
	}), nil
}
