package flow

import (
	"github.com/kbukum/flowkit/pipeline"
)

// outcome is the state a terminal node leaves for its Result.
type outcome struct {
	found bool
	key   Key
	value any
}

func (o *outcome) set(key Key, value any) {
	o.found, o.key, o.value = true, key, value
}

// shortcutter is implemented by terminals that can answer from the source
// alone when no other node precedes them.
type shortcutter interface {
	shortcut(src Source) bool
}

// --- Collect ---

type collectOp struct {
	terminal
	c    Collector
	keys bool
}

func (o *collectOp) Kind() Kind { return KindCollect }

func (o *collectOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	if o.keys {
		o.c.Set(c.Key(), c.Value())
	} else {
		o.c.Add(c.Value())
	}
	return nil
}

func (o *collectOp) StreamingFinished(*Signal) (bool, error) {
	o.out.set(Key{}, o.c)
	return false, nil
}

func (o *collectOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- GroupBy ---

type groupByOp struct {
	terminal
	d      Discriminator
	groups map[Key][]any
}

func (o *groupByOp) Kind() Kind { return KindGroupBy }

func (o *groupByOp) Start(*Signal) error {
	o.groups = make(map[Key][]any)
	return nil
}

func (o *groupByOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	class, err := o.d.Classify(c.Value(), c.Key())
	if err != nil {
		return err
	}
	k, err := KeyOf(class)
	if err != nil {
		return err
	}
	o.groups[k] = append(o.groups[k], c.Value())
	return nil
}

func (o *groupByOp) StreamingFinished(*Signal) (bool, error) {
	o.out.set(Key{}, o.groups)
	return false, nil
}

func (o *groupByOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- First / Find ---

// findOp records the first element matching pred and terminates the run.
// A nil pred matches every element.
type findOp struct {
	terminal
	pred Predicate
}

func (o *findOp) Kind() Kind {
	if o.pred == nil {
		return KindFirst
	}
	return KindFind
}

func (o *findOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	if o.pred != nil {
		ok, err := o.pred.Test(c.Value(), c.Key())
		if err != nil || !ok {
			return err
		}
	}
	o.out.set(c.Key(), c.Value())
	sig.Terminate()
	return nil
}

func (o *findOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Has ---

// hasOp always produces a bool: whether any element matched pred.
type hasOp struct {
	terminal
	pred Predicate
}

func (o *hasOp) Kind() Kind { return KindHas }

func (o *hasOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	ok, err := o.pred.Test(c.Value(), c.Key())
	if err != nil || !ok {
		return err
	}
	o.out.set(c.Key(), true)
	sig.Terminate()
	return nil
}

func (o *hasOp) StreamingFinished(*Signal) (bool, error) {
	if !o.out.found {
		o.out.set(Key{}, false)
	}
	return false, nil
}

func (o *hasOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Last ---

type lastOp struct{ terminal }

func (o *lastOp) Kind() Kind { return KindLast }

func (o *lastOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	o.out.set(c.Key(), c.Value())
	return nil
}

func (o *lastOp) shortcut(src Source) bool {
	lr, ok := src.(LastReader)
	if !ok {
		return false
	}
	if it, ok := lr.Last(); ok {
		o.out.set(it.key, it.value)
	}
	return true
}

func (o *lastOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- IsEmpty ---

type isEmptyOp struct{ terminal }

func (o *isEmptyOp) Kind() Kind { return KindIsEmpty }

func (o *isEmptyOp) Handle(sig *Signal) error {
	o.out.set(Key{}, false)
	sig.Terminate()
	return nil
}

func (o *isEmptyOp) StreamingFinished(*Signal) (bool, error) {
	if !o.out.found {
		o.out.set(Key{}, true)
	}
	return false, nil
}

func (o *isEmptyOp) shortcut(src Source) bool {
	c, ok := src.(Counter)
	if ok {
		o.out.set(Key{}, c.Count() == 0)
	}
	return ok
}

func (o *isEmptyOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Count ---

type countOp struct {
	terminal
	n int
}

func (o *countOp) Kind() Kind { return KindCount }

func (o *countOp) Start(*Signal) error {
	o.n = 0
	return nil
}

func (o *countOp) Handle(*Signal) error {
	o.n++
	return nil
}

func (o *countOp) StreamingFinished(*Signal) (bool, error) {
	o.out.set(Key{}, o.n)
	return false, nil
}

func (o *countOp) shortcut(src Source) bool {
	c, ok := src.(Counter)
	if ok {
		o.out.set(Key{}, c.Count())
	}
	return ok
}

func (o *countOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Reduce ---

type reduceOp struct {
	terminal
	r Reducer
}

func (o *reduceOp) Kind() Kind { return KindReduce }

func (o *reduceOp) Start(*Signal) error {
	o.r.Reset()
	return nil
}

func (o *reduceOp) Handle(sig *Signal) error {
	return o.r.Consume(sig.Cursor().Value())
}

func (o *reduceOp) StreamingFinished(*Signal) (bool, error) {
	if o.r.HasResult() {
		o.out.set(Key{}, o.r.Result())
	}
	return false, nil
}

func (o *reduceOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Fold ---

type foldOp struct {
	terminal
	init any
	fn   func(acc, value any, key Key) (any, error)
	acc  any
}

func (o *foldOp) Kind() Kind { return KindFold }

func (o *foldOp) Start(*Signal) error {
	o.acc = o.init
	return nil
}

func (o *foldOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	acc, err := o.fn(o.acc, c.Value(), c.Key())
	if err != nil {
		return err
	}
	o.acc = acc
	return nil
}

func (o *foldOp) StreamingFinished(*Signal) (bool, error) {
	o.out.set(Key{}, o.acc)
	return false, nil
}

func (o *foldOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}

// --- Drain ---

type drainOp struct{ terminal }

func (o *drainOp) Kind() Kind { return KindDrain }

func (o *drainOp) Handle(*Signal) error { return nil }

func (o *drainOp) StreamingFinished(*Signal) (bool, error) {
	o.out.set(Key{}, nil)
	return false, nil
}

func (o *drainOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return p, nil
}

// --- Yield ---

// yieldOp hands each element to an Iterator by interrupting the run.
type yieldOp struct {
	terminal
	item    Item
	pending bool
}

func (o *yieldOp) Kind() Kind { return KindYield }

func (o *yieldOp) Handle(sig *Signal) error {
	o.item = sig.Cursor().Snapshot()
	o.pending = true
	sig.Interrupt()
	return nil
}

func (o *yieldOp) take() (Item, bool) {
	if !o.pending {
		return Item{}, false
	}
	o.pending = false
	return o.item, true
}

func (o *yieldOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return p, nil
}
