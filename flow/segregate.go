package flow

import (
	"slices"
	"sort"

	"github.com/kbukum/flowkit/pipeline"
)

// SegregateSpec bounds the number of rank groups kept by Segregate.
// Zero keeps every group.
type SegregateSpec struct {
	Buckets int `mapstructure:"buckets" validate:"gte=0"`
}

// buckets is a sorted list of groups of equal-ranked elements. When more
// than limit groups exist, the worst group is dropped.
type buckets struct {
	ordering Ordering
	limit    int
	groups   [][]Item
	err      error
}

func (b *buckets) compare(x, y Item) int {
	c, err := b.ordering.compare(x, y)
	if err != nil && b.err == nil {
		b.err = err
	}
	return c
}

func (b *buckets) add(it Item) error {
	i := sort.Search(len(b.groups), func(i int) bool {
		return b.compare(b.groups[i][0], it) >= 0
	})
	if b.err != nil {
		return b.err
	}
	if i < len(b.groups) && b.compare(b.groups[i][0], it) == 0 {
		b.groups[i] = append(b.groups[i], it)
		return b.err
	}
	if b.limit > 0 && len(b.groups) == b.limit {
		if i == len(b.groups) {
			return nil
		}
		b.groups = b.groups[:len(b.groups)-1]
	}
	b.groups = slices.Insert(b.groups, i, []Item{it})
	return nil
}

func (b *buckets) items() []Item {
	out := make([]Item, len(b.groups))
	for i, g := range b.groups {
		out[i] = NewItem(IntKey(i), g)
	}
	b.groups = nil
	return out
}

type segregateOp struct {
	link
	ordering Ordering
	spec     SegregateSpec
	b        *buckets
}

func (o *segregateOp) Kind() Kind { return KindSegregate }

func (o *segregateOp) Prepare() error {
	o.ordering = o.ordering.resolve()
	return nil
}

func (o *segregateOp) Start(*Signal) error {
	o.b = &buckets{ordering: o.ordering, limit: o.spec.Buckets}
	return nil
}

func (o *segregateOp) Handle(sig *Signal) error {
	return o.b.add(sig.Cursor().Snapshot())
}

func (o *segregateOp) StreamingFinished(sig *Signal) (bool, error) {
	items := o.b.items()
	if len(items) == 0 {
		return finish(o.next, sig)
	}
	sig.RestartFrom(o.next, items)
	return true, nil
}

func (o *segregateOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Materialize(p, func(items []Item) ([]Item, error) {
		b := &buckets{ordering: o.ordering, limit: o.spec.Buckets}
		for _, it := range items {
			if err := b.add(it); err != nil {
				return nil, err
			}
		}
		return b.items(), nil
	}), nil
}
