package flow

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// execution is one push-mode run of a stream.
type execution struct {
	ctx   context.Context
	sig   *Signal
	ops   []Operation
	run   *observability.RunContext
	log   *logger.Logger
	ended bool
	err   error
}

func (s *Stream) execute(ctx context.Context) error {
	e, err := s.begin(ctx)
	if err != nil {
		return err
	}
	return e.step(ctx)
}

// begin builds the chain, opens the run span and starts every node. When
// the chain is a single terminal that can answer from the source alone,
// the run is already done on return.
func (s *Stream) begin(ctx context.Context) (*execution, error) {
	if s.branch {
		return nil, errors.UnsupportedMode("standalone", "branch")
	}
	head, ops, err := s.build()
	if err != nil {
		return nil, err
	}

	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx, rc := s.telemetry.StartRun(ctx, runID, len(ops))
	e := &execution{
		ctx: ctx,
		sig: newSignal(ctx, s.source, head),
		ops: ops,
		run: rc,
		log: s.log.WithRun(runID).WithContext(ctx),
	}
	e.log.Debug("run started", logger.Fields(logger.FieldNodes, len(ops)))

	if sc, ok := head.(shortcutter); ok && len(ops) == 1 && sc.shortcut(s.source) {
		e.sig.done = true
		return e, nil
	}
	for _, op := range ops {
		if st, ok := op.(Starter); ok {
			if err := st.Start(e.sig); err != nil {
				return nil, e.end(err)
			}
		}
	}
	return e, nil
}

// step runs until the next interrupt or the end of the run.
func (e *execution) step(ctx context.Context) error {
	if e.ended {
		return e.err
	}
	e.sig.ctx = ctx
	e.sig.Resume()
	err := e.sig.run()
	if err != nil || !e.sig.IsInterrupted() {
		return e.end(err)
	}
	return nil
}

// end releases the run's sources, settles fed branches and closes the run
// span. It returns the run error.
func (e *execution) end(err error) error {
	if e.ended {
		return e.err
	}
	e.ended = true
	for _, op := range e.ops {
		if en, ok := op.(ender); ok {
			if eerr := en.end(err); err == nil {
				err = eerr
			}
		}
	}
	if cerr := e.sig.close(); err == nil {
		err = cerr
	}
	e.run.End(e.ctx, e.sig.Pulled(), err)

	fields := logger.DurationFields("run", e.run.Duration())
	fields[logger.FieldItems] = e.sig.Pulled()
	if err != nil {
		e.log.Error("run failed", logger.MergeWithError(fields, err))
	} else {
		e.log.Debug("run finished", fields)
	}
	e.err = err
	return err
}

// Iterator pulls the output of a push-mode run one element at a time.
// It implements pipeline.Iterator[Item].
type Iterator struct {
	stream *Stream
	yield  *yieldOp
	exec   *execution
	err    error
	done   bool
}

// Next returns the next element, running the chain until it produces one.
func (it *Iterator) Next(ctx context.Context) (Item, bool, error) {
	if it.done {
		return Item{}, false, it.err
	}
	if it.exec == nil {
		e, err := it.stream.begin(ctx)
		if err != nil {
			return it.stop(err)
		}
		it.exec = e
	}
	if err := it.exec.step(ctx); err != nil {
		return it.stop(err)
	}
	if item, ok := it.yield.take(); ok {
		return item, true, nil
	}
	return it.stop(nil)
}

func (it *Iterator) stop(err error) (Item, bool, error) {
	it.done = true
	it.err = err
	return Item{}, false, err
}

// Close ends the run early. It is safe to call more than once.
func (it *Iterator) Close() error {
	it.done = true
	if it.exec == nil {
		return nil
	}
	return it.exec.end(nil)
}
