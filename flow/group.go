package flow

import (
	"context"

	"github.com/kbukum/flowkit/pipeline"
)

// chunkOp emits consecutive elements in groups of size as []Item values
// keyed by chunk number. The last chunk may be shorter.
type chunkOp struct {
	link
	size  int
	buf   []Item
	index int
}

func (o *chunkOp) Kind() Kind { return KindChunk }

func (o *chunkOp) Start(*Signal) error {
	o.buf, o.index = nil, 0
	return nil
}

func (o *chunkOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	o.buf = append(o.buf, c.Snapshot())
	if len(o.buf) < o.size {
		return nil
	}
	c.Set(IntKey(o.index), o.buf)
	o.buf = nil
	o.index++
	return o.next.Handle(sig)
}

func (o *chunkOp) StreamingFinished(sig *Signal) (bool, error) {
	if len(o.buf) == 0 {
		return finish(o.next, sig)
	}
	sig.ContinueFrom(o.next, []Item{NewItem(IntKey(o.index), o.buf)})
	o.buf = nil
	o.index++
	return true, nil
}

func (o *chunkOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.MapIndexed(pipeline.Batch(p, o.size), func(_ context.Context, i int, b []Item) (Item, error) {
		return NewItem(IntKey(i), b), nil
	}), nil
}

// accumulateOp groups runs of consecutive elements matching pred into
// []Item values keyed by run number. Elements that do not match close the
// current run and are dropped.
type accumulateOp struct {
	link
	pred  Predicate
	run   []Item
	index int
}

func (o *accumulateOp) Kind() Kind { return KindAccumulate }

func (o *accumulateOp) Start(*Signal) error {
	o.run, o.index = nil, 0
	return nil
}

// push adds it to the current run and returns a finished run, if any.
func (o *accumulateOp) push(it Item) (Item, bool, error) {
	ok, err := o.pred.Test(it.value, it.key)
	if err != nil {
		return Item{}, false, err
	}
	if ok {
		o.run = append(o.run, it)
		return Item{}, false, nil
	}
	return o.flush()
}

func (o *accumulateOp) flush() (Item, bool, error) {
	if len(o.run) == 0 {
		return Item{}, false, nil
	}
	out := NewItem(IntKey(o.index), o.run)
	o.run = nil
	o.index++
	return out, true, nil
}

func (o *accumulateOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	run, ok, err := o.push(c.Snapshot())
	if err != nil || !ok {
		return err
	}
	c.Load(run)
	return o.next.Handle(sig)
}

func (o *accumulateOp) StreamingFinished(sig *Signal) (bool, error) {
	run, ok, _ := o.flush()
	if !ok {
		return finish(o.next, sig)
	}
	sig.ContinueFrom(o.next, []Item{run})
	return true, nil
}

func (o *accumulateOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[Item] {
		return &accumulateIter{op: &accumulateOp{pred: o.pred}, source: p.Iter(ctx)}
	}), nil
}

type accumulateIter struct {
	op     *accumulateOp
	source pipeline.Iterator[Item]
	done   bool
}

func (it *accumulateIter) Next(ctx context.Context) (Item, bool, error) {
	for !it.done {
		v, ok, err := it.source.Next(ctx)
		if err != nil {
			return Item{}, false, err
		}
		if !ok {
			it.done = true
			break
		}
		run, emit, err := it.op.push(v)
		if err != nil || emit {
			return run, emit && err == nil, err
		}
	}
	return it.op.flush()
}

func (it *accumulateIter) Close() error { return it.source.Close() }
