package flow

import (
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/pipeline"
)

// Operation is one node of an executable chain.
//
// In push mode the run calls Handle once per element with the element in
// sig.Cursor(); a node forwards by calling Next().Handle(sig), suppresses
// by returning, or rewrites the Cursor first. When the input ends every
// node receives StreamingFinished in chain order; a node that reopens the
// run (RestartFrom, ContinueFrom) returns true instead of forwarding.
//
// In pull mode BuildStream wraps the upstream pipeline.
type Operation interface {
	Kind() Kind
	Handle(sig *Signal) error
	StreamingFinished(sig *Signal) (bool, error)
	BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error)
	Prepare() error
	Next() Operation
	SetNext(op Operation)
}

// Starter is implemented by nodes that reset state or act before the first
// element is pulled.
type Starter interface {
	Start(sig *Signal) error
}

// link provides the chain plumbing shared by every node.
type link struct {
	next Operation
}

func (l *link) Next() Operation { return l.next }

func (l *link) SetNext(op Operation) { l.next = op }

func (l *link) Prepare() error { return nil }

func (l *link) StreamingFinished(sig *Signal) (bool, error) {
	return finish(l.next, sig)
}

func finish(next Operation, sig *Signal) (bool, error) {
	if next == nil {
		return false, nil
	}
	return next.StreamingFinished(sig)
}

// Node provides the chain plumbing for operations defined outside the
// package. Embed it and implement Kind, Handle and BuildStream; the
// embedded StreamingFinished forwards the completion notice.
type Node struct {
	link
}

// terminal is embedded by nodes that end a chain.
type terminal struct {
	link
	out *outcome
}

func (t *terminal) StreamingFinished(*Signal) (bool, error) { return false, nil }

func pullUnsupported(k Kind) error {
	return errors.UnsupportedMode("pull", k.String())
}
