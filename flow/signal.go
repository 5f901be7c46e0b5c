package flow

import (
	"context"
)

// frame is one level of the run. The base frame feeds the run source into
// the chain head; nested frames feed a sub-sequence into a later node.
type frame struct {
	source Source
	head   Operation
	// resume receives the completion notice once a nested frame is
	// exhausted. A nil resume hands control back to the outer source.
	resume Operation
	origin bool
}

// Signal is the control object of one run. It owns the Cursor and the frame
// stack, and it is passed to every Handle and StreamingFinished call.
//
// Lifecycle: running until the top source is exhausted or Stop is called,
// then finishing while completion notices travel down the chain, then done.
// A finishing node may reopen the run with RestartFrom or ContinueFrom.
// Terminate moves straight to done from any state.
type Signal struct {
	ctx    context.Context
	cursor *Cursor
	frames []*frame

	stopped     bool
	terminated  bool
	interrupted bool
	done        bool
	streamEmpty bool
	restarted   bool
	// open keeps a fed sub-run alive when its queue runs dry.
	open bool

	// level is the frame count when the element in flight was pulled.
	// Frames above stopLevel were opened by a stopped element and drain
	// before the stop takes effect.
	level     int
	stopLevel int

	pulled   int64
	gen      int
	closeErr error
}

func newSignal(ctx context.Context, src Source, head Operation) *Signal {
	return &Signal{
		ctx:         ctx,
		cursor:      &Cursor{},
		frames:      []*frame{{source: src, head: head, origin: true}},
		streamEmpty: true,
		level:       1,
	}
}

// Context returns the context of the run.
func (s *Signal) Context() context.Context { return s.ctx }

// Cursor returns the element in flight.
func (s *Signal) Cursor() *Cursor { return s.cursor }

// Depth returns the number of nested frames above the base frame.
func (s *Signal) Depth() int { return len(s.frames) - 1 }

// Stop ends the current traversal. No more elements are pulled from the
// frame of the element in flight or the frames below it, but every node
// still receives StreamingFinished. Frames opened while handling that
// element are drained first.
func (s *Signal) Stop() {
	s.stopped = true
	s.stopLevel = max(s.stopLevel, s.level)
}

// IsStopped reports whether Stop was called and not cleared by a restart.
func (s *Signal) IsStopped() bool { return s.stopped }

// Terminate ends the run unconditionally. Nested frames are discarded and
// no completion notice is delivered.
func (s *Signal) Terminate() {
	s.terminated = true
	s.stopped = true
}

// IsTerminated reports whether Terminate was called.
func (s *Signal) IsTerminated() bool { return s.terminated }

// Interrupt suspends the run after the current Handle call returns. The
// run continues from the same point on the next Resume.
func (s *Signal) Interrupt() { s.interrupted = true }

// IsInterrupted reports whether the interrupt latch is set.
func (s *Signal) IsInterrupted() bool { return s.interrupted }

// Resume clears the interrupt latch.
func (s *Signal) Resume() {
	if !s.terminated {
		s.interrupted = false
	}
}

// StreamEmpty reports whether the run source produced no element.
func (s *Signal) StreamEmpty() bool { return s.streamEmpty }

// Restarted reports whether a node replaced the source with RestartFrom.
func (s *Signal) Restarted() bool { return s.restarted }

// Pulled returns the number of elements pulled from the run source.
func (s *Signal) Pulled() int64 { return s.pulled }

// RestartFrom replaces the current frame with a replay of items fed into
// next. Completion of the replay is the completion of the frame.
func (s *Signal) RestartFrom(next Operation, items []Item) {
	if s.terminated {
		return
	}
	top := s.frames[len(s.frames)-1]
	s.noteClose(closeSource(top.source))
	top.source = FromItems(items)
	top.head = next
	top.origin = false
	s.restarted = true
	s.stopped, s.stopLevel = false, 0
	s.gen++
}

// ContinueFrom runs a replay of items through next as a nested frame. Once
// the replay is exhausted, next receives the completion notice.
func (s *Signal) ContinueFrom(next Operation, items []Item) {
	if s.terminated {
		return
	}
	s.frames = append(s.frames, &frame{source: FromItems(items), head: next, resume: next})
	s.stopped, s.stopLevel = false, 0
	s.gen++
}

// ContinueWith feeds src through next as a nested frame. Once src is
// exhausted the outer source continues.
func (s *Signal) ContinueWith(src Source, next Operation) {
	if s.terminated || s.halted() {
		return
	}
	s.frames = append(s.frames, &frame{source: src, head: next})
}

// Forget removes op from the head of the current frame. Later elements of
// the frame enter the chain at op's successor.
func (s *Signal) Forget(op Operation) {
	top := s.frames[len(s.frames)-1]
	if top.head == op && op.Next() != nil {
		top.head = op.Next()
	}
}

// run drives the frames until the run is done, terminated or interrupted.
func (s *Signal) run() error {
	for !s.terminated && !s.interrupted && !s.done {
		if s.halted() {
			if err := s.complete(); err != nil {
				return err
			}
			continue
		}
		if err := s.ctx.Err(); err != nil {
			return err
		}
		top := s.frames[len(s.frames)-1]
		ok, err := top.source.Next(s.ctx, s.cursor)
		if err != nil {
			return err
		}
		if !ok {
			if s.open && len(s.frames) == 1 {
				return nil
			}
			if err := s.complete(); err != nil {
				return err
			}
			continue
		}
		if top.origin {
			s.pulled++
			s.streamEmpty = false
		}
		s.level = len(s.frames)
		if err := top.head.Handle(s); err != nil {
			return err
		}
	}
	return nil
}

// complete handles the end of the top frame.
func (s *Signal) complete() error {
	var from Operation
	switch {
	case s.halted():
		from = s.frames[0].head
		for len(s.frames) > 1 {
			if f := s.pop(); f.resume != nil {
				from = f.resume
			}
		}
	case len(s.frames) > 1:
		f := s.pop()
		if f.resume == nil {
			return nil
		}
		from = f.resume
	default:
		from = s.frames[0].head
	}

	gen := s.gen
	s.level = len(s.frames)
	if _, err := from.StreamingFinished(s); err != nil {
		return err
	}
	if s.gen == gen {
		s.done = true
	}
	return nil
}

// halted reports whether a stop applies to the top frame.
func (s *Signal) halted() bool {
	return s.stopped && len(s.frames) <= s.stopLevel
}

func (s *Signal) pop() *frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	s.noteClose(closeSource(f.source))
	return f
}

func (s *Signal) noteClose(err error) {
	if err != nil && s.closeErr == nil {
		s.closeErr = err
	}
}

// close releases every source still held by the run and returns the first
// close error seen during the run.
func (s *Signal) close() error {
	for i := len(s.frames) - 1; i >= 0; i-- {
		s.noteClose(closeSource(s.frames[i].source))
	}
	s.frames = s.frames[:1]
	return s.closeErr
}
