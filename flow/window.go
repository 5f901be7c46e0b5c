package flow

import (
	"context"

	"github.com/kbukum/flowkit/buffer"
	"github.com/kbukum/flowkit/pipeline"
)

// WindowSpec describes a sliding window.
type WindowSpec struct {
	Size int `mapstructure:"size" validate:"gt=0"`
	Step int `mapstructure:"step" validate:"gt=0"`
}

// windowOp emits a []Item of the last Size elements every Step elements
// once Size elements have been seen. A trailing partial window is emitted
// at the end when it holds elements no emitted window contained.
type windowOp struct {
	link
	spec    WindowSpec
	ring    *buffer.Ring[Item]
	count   int
	emitted int
}

func (o *windowOp) Kind() Kind { return KindWindow }

func (o *windowOp) Start(*Signal) error {
	o.ring = buffer.NewRing[Item](o.spec.Size)
	o.count, o.emitted = 0, 0
	return nil
}

func (o *windowOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	o.ring.Push(c.Snapshot())
	o.count++
	if o.count < o.spec.Size || (o.count-o.spec.Size)%o.spec.Step != 0 {
		return nil
	}
	c.Set(IntKey(o.emitted), o.ring.Items())
	o.emitted++
	return o.next.Handle(sig)
}

func (o *windowOp) StreamingFinished(sig *Signal) (bool, error) {
	start, ok := pipeline.PendingWindow(o.count, o.emitted, o.spec.Size, o.spec.Step)
	if !ok {
		return finish(o.next, sig)
	}
	pending := o.ring.Last(o.count - start + 1)
	sig.ContinueFrom(o.next, []Item{NewItem(IntKey(o.emitted), pending)})
	o.emitted++
	return true, nil
}

func (o *windowOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	windows := pipeline.SlidingWindow(p, o.spec.Size, o.spec.Step)
	return pipeline.MapIndexed(windows, func(_ context.Context, i int, w []Item) (Item, error) {
		return NewItem(IntKey(i), w), nil
	}), nil
}
