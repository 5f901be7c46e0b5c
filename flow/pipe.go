package flow

import (
	"context"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

const none = -1

// node is one arena slot. Slot 0 is the sentinel head; removed slots keep
// a nil op and are unreachable.
type node struct {
	op         Operation
	prev, next int
}

// Rewrite records one applied fusion rule.
type Rewrite struct {
	Rule     string
	Tail     Kind
	Incoming Kind
}

// Pipe builds an operation chain. Every Append first tries the rewrite
// rules against the current tail and only then links the new node.
type Pipe struct {
	nodes    []node
	tail     int
	terminal Operation

	fusion   config.FusionConfig
	log      *logger.Logger
	metrics  *observability.FlowMetrics
	rewrites []Rewrite
}

// NewPipe creates an empty chain. log and metrics may be nil.
func NewPipe(fusion config.FusionConfig, log *logger.Logger, metrics *observability.FlowMetrics) *Pipe {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipe{
		nodes:   []node{{prev: none, next: none}},
		fusion:  fusion,
		log:     log,
		metrics: metrics,
	}
}

// Append adds op to the end of the chain, fusing it with the tail where a
// rule allows. Appending after a terminal operation fails with
// CHAIN_SEALED.
func (p *Pipe) Append(op Operation) error {
	if p.terminal != nil {
		return errors.ChainSealed(op.Kind().String(), p.terminal.Kind().String())
	}
	incoming := op
	for incoming != nil && p.tail != 0 {
		tail := p.nodes[p.tail].op
		r, ok := rules[rulePair{tail.Kind(), incoming.Kind()}]
		if !ok || !p.fusion.RuleEnabled(r.id) {
			break
		}
		rw, applied := r.apply(tail, incoming)
		if !applied {
			break
		}
		p.record(r.id, tail.Kind(), incoming.Kind())

		at := p.tail
		if rw.hoist != nil {
			p.insertAfter(p.nodes[at].prev, rw.hoist)
		}
		switch {
		case rw.remove:
			p.remove(at)
		case rw.replace != nil:
			p.nodes[at].op = rw.replace
		}
		incoming = rw.incoming
	}
	if incoming == nil {
		return nil
	}
	p.insertAfter(p.tail, incoming)
	if incoming.Kind().Terminal() {
		p.terminal = incoming
	}
	return nil
}

func (p *Pipe) record(rule string, tail, incoming Kind) {
	p.rewrites = append(p.rewrites, Rewrite{Rule: rule, Tail: tail, Incoming: incoming})
	p.log.Debug("fusion rewrite", logger.Fields(
		logger.FieldRule, rule,
		logger.FieldTail, tail.String(),
		logger.FieldIncoming, incoming.String(),
	))
	p.metrics.RecordRewrite(context.Background(), rule)
}

func (p *Pipe) insertAfter(at int, op Operation) {
	idx := len(p.nodes)
	next := p.nodes[at].next
	p.nodes = append(p.nodes, node{op: op, prev: at, next: next})
	p.nodes[at].next = idx
	if next != none {
		p.nodes[next].prev = idx
	}
	if at == p.tail {
		p.tail = idx
	}
}

func (p *Pipe) remove(i int) {
	n := p.nodes[i]
	p.nodes[n.prev].next = n.next
	if n.next != none {
		p.nodes[n.next].prev = n.prev
	}
	if p.tail == i {
		p.tail = n.prev
	}
	p.nodes[i] = node{prev: none, next: none}
}

// Sealed reports whether a terminal operation has been appended.
func (p *Pipe) Sealed() bool { return p.terminal != nil }

// Kinds lists the kinds of the live nodes in chain order.
func (p *Pipe) Kinds() []Kind {
	var out []Kind
	for i := p.nodes[0].next; i != none; i = p.nodes[i].next {
		out = append(out, p.nodes[i].op.Kind())
	}
	return out
}

// Rewrites lists the fusion rules applied so far.
func (p *Pipe) Rewrites() []Rewrite { return p.rewrites }

// Build links the live nodes into an executable chain and returns its head
// and its nodes in order. The chain must end with its only terminal node.
func (p *Pipe) Build() (Operation, []Operation, error) {
	var ops []Operation
	for i := p.nodes[0].next; i != none; i = p.nodes[i].next {
		ops = append(ops, p.nodes[i].op)
	}
	if len(ops) == 0 || !ops[len(ops)-1].Kind().Terminal() {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "chain has no terminal operation")
	}
	for i, op := range ops[:len(ops)-1] {
		if op.Kind().Terminal() {
			return nil, nil, errors.Internal(errors.ChainSealed(ops[i+1].Kind().String(), op.Kind().String()))
		}
		op.SetNext(ops[i+1])
	}
	ops[len(ops)-1].SetNext(nil)
	return ops[0], ops, nil
}
