package flow

import (
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/pipeline"
)

// ender is implemented by nodes that must act once the run is over,
// however it ended.
type ender interface {
	end(err error) error
}

// feedOp pushes a copy of every element into a branch stream and forwards
// the element unchanged. The branch runs inside the host run on its own
// Signal and completes when the host run ends.
type feedOp struct {
	link
	branch *Stream
	queue  *queueSource
	sub    *Signal
	ops    []Operation
}

func (o *feedOp) Kind() Kind { return KindFeed }

func (o *feedOp) Start(sig *Signal) error {
	head, ops, err := o.branch.build()
	if err != nil {
		return err
	}
	if last := ops[len(ops)-1]; last.Kind() == KindYield {
		return errors.UnsupportedMode("branch", last.Kind().String())
	}
	o.ops = ops
	o.queue = &queueSource{}
	o.sub = newSignal(sig.Context(), o.queue, head)
	o.sub.open = true
	for _, op := range ops {
		if st, ok := op.(Starter); ok {
			if err := st.Start(o.sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *feedOp) Handle(sig *Signal) error {
	if !o.sub.done && !o.sub.terminated {
		o.queue.push(sig.Cursor().Snapshot())
		if err := o.sub.run(); err != nil {
			return err
		}
	}
	return o.next.Handle(sig)
}

func (o *feedOp) end(err error) error {
	if o.sub == nil {
		o.branch.settle(err)
		return nil
	}
	if err == nil {
		o.sub.open = false
		err = o.sub.run()
	}
	if cerr := o.sub.close(); err == nil {
		err = cerr
	}
	for _, op := range o.ops {
		if en, ok := op.(ender); ok {
			if eerr := en.end(err); err == nil {
				err = eerr
			}
		}
	}
	o.branch.settle(err)
	return err
}

func (o *feedOp) BuildStream(*pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return nil, pullUnsupported(o.Kind())
}
