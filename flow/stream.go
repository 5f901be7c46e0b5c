package flow

import (
	"context"
	"iter"
	"math/rand/v2"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/validation"
)

const component = "flowkit"

// Stream is a chain under construction bound to a source. Operator methods
// append to the chain and return the same Stream; terminal methods seal it
// and return a Result. The first construction error is kept and reported
// by every later call. A Stream runs at most once and is not safe for
// concurrent use.
type Stream struct {
	source    Source
	pipe      *Pipe
	cfg       *config.EngineConfig
	log       *logger.Logger
	telemetry *observability.Telemetry
	rng       *rand.Rand
	runID     string

	err     error
	branch  bool
	started bool
	result  *Result
}

// Option configures a Stream.
type Option func(*Stream)

// WithConfig sets the engine configuration. Without WithLogger the stream
// logs with the configured logging settings.
func WithConfig(cfg *config.EngineConfig) Option {
	return func(s *Stream) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Stream) { s.log = l }
}

// WithTelemetry sets the tracer and instruments used for runs.
func WithTelemetry(t *observability.Telemetry) Option {
	return func(s *Stream) { s.telemetry = t }
}

// WithRunID sets the run id instead of a generated one. It must be a
// UUID.
func WithRunID(id string) Option {
	return func(s *Stream) {
		if _, err := validation.ValidateUUID("run_id", id); err != nil {
			s.fail(err)
			return
		}
		s.runID = id
	}
}

// WithRand sets the random source used by Shuffle.
func WithRand(r *rand.Rand) Option {
	return func(s *Stream) { s.rng = r }
}

// From creates a stream over src.
func From(src Source, opts ...Option) *Stream {
	s := newStream(src, false, opts)
	if src == nil {
		s.fail(errors.MissingField("source"))
	}
	return s
}

// Of creates a stream over values keyed by position.
func Of(values ...any) *Stream {
	return From(FromSlice(values))
}

// Branch creates a sourceless stream to be fed by another stream's Feed.
// Its Result is settled when the feeding run ends.
func Branch(opts ...Option) *Stream {
	return newStream(nil, true, opts)
}

func newStream(src Source, branch bool, opts []Option) *Stream {
	s := &Stream{source: src, branch: branch}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case s.cfg == nil:
		s.cfg = config.DefaultEngineConfig()
		if s.log == nil {
			s.log = logger.Get(component)
		}
	case s.log == nil:
		s.log = logger.New(&s.cfg.Logging, component)
	}
	if err := s.cfg.Validate(); err != nil {
		s.fail(err)
	}
	if s.telemetry == nil && s.cfg.Telemetry.Enabled {
		t, err := observability.GlobalTelemetry()
		if err != nil {
			s.log.Warn("run telemetry disabled", logger.ErrorFields("telemetry", err))
		}
		s.telemetry = t
	}
	s.pipe = NewPipe(s.cfg.Fusion, s.log, s.telemetry.Metrics())
	return s
}

func (s *Stream) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first construction error.
func (s *Stream) Err() error { return s.err }

// Kinds lists the operation kinds of the chain after fusion.
func (s *Stream) Kinds() []Kind { return s.pipe.Kinds() }

// Rewrites lists the fusion rules applied to the chain.
func (s *Stream) Rewrites() []Rewrite { return s.pipe.Rewrites() }

func (s *Stream) add(op Operation) *Stream {
	if s.err == nil {
		s.fail(s.pipe.Append(op))
	}
	return s
}

// valid records the validator's errors and reports whether there were none.
func (s *Stream) valid(v *validation.Validator) bool {
	if s.err != nil {
		return false
	}
	if err := v.Error(); err != nil {
		s.fail(err)
		return false
	}
	return true
}

func (s *Stream) validStruct(spec any) bool {
	if s.err != nil {
		return false
	}
	if err := validation.Validate(spec); err != nil {
		s.fail(err)
		return false
	}
	return true
}

func validMode(v *validation.Validator, m Mode) *validation.Validator {
	return v.Range("mode", int(m), int(ModeValue), int(ModeBoth))
}

// --- Operators ---

// Filter keeps elements matching p.
func (s *Stream) Filter(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.add(newFilter(p))
}

// Omit drops elements matching p.
func (s *Stream) Omit(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.Filter(Not(p))
}

// Map replaces each value with m's result.
func (s *Stream) Map(m Mapper) *Stream {
	if !s.valid(validation.New().NotNil("mapper", m)) {
		return s
	}
	return s.add(newMap(m))
}

// Pick replaces each record with a map of the named fields.
func (s *Stream) Pick(names ...string) *Stream {
	v := validation.New().NotEmpty("fields", len(names))
	for _, n := range names {
		v.Required("fields", n)
	}
	if !s.valid(v) {
		return s
	}
	return s.add(newMap(pick(names)))
}

// MapKey replaces each key with m's result, which must be an int or a
// string.
func (s *Stream) MapKey(m Mapper) *Stream {
	if !s.valid(validation.New().NotNil("mapper", m)) {
		return s
	}
	return s.add(&mapKeyOp{mapper: m})
}

// Reindex replaces keys with start, start+step, start+2*step, ...
func (s *Stream) Reindex(start, step int) *Stream {
	if !s.valid(validation.New().Custom(step != 0, "step", "must not be 0")) {
		return s
	}
	return s.add(&reindexOp{start: start, step: step})
}

// Apply appends a caller-defined operation. Its Kind must not be terminal.
func (s *Stream) Apply(op Operation) *Stream {
	v := validation.New().NotNil("operation", op)
	if op != nil {
		v.Custom(!op.Kind().Terminal(), "operation", "must not be a terminal kind")
	}
	if !s.valid(v) {
		return s
	}
	return s.add(op)
}

// Flip swaps keys and values. Values must be ints or strings.
func (s *Stream) Flip() *Stream { return s.add(&flipOp{}) }

// Tap calls fn for each element and forwards it unchanged.
func (s *Stream) Tap(fn func(value any, key Key) error) *Stream {
	if !s.valid(validation.New().Custom(fn != nil, "fn", "is required")) {
		return s
	}
	return s.add(&tapOp{fn: fn})
}

// Assert fails the run with ASSERTION_FAILED on the first element whose
// value, key or both (per mode) do not match p.
func (s *Stream) Assert(p Predicate, mode Mode) *Stream {
	if !s.valid(validMode(validation.New().NotNil("predicate", p), mode)) {
		return s
	}
	return s.add(&assertOp{pred: p, mode: mode})
}

// Skip drops the first n elements.
func (s *Stream) Skip(n int) *Stream {
	if !s.valid(validation.New().NonNegative("skip", n)) {
		return s
	}
	return s.add(newSkip(n))
}

// SkipWhile drops elements until the first one not matching p.
func (s *Stream) SkipWhile(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.add(&skipWhileOp{pred: p, skipping: true})
}

// Limit keeps the first n elements and stops pulling after them.
func (s *Stream) Limit(n int) *Stream {
	if !s.valid(validation.New().NonNegative("limit", n)) {
		return s
	}
	return s.add(&limitOp{n: n})
}

// While keeps elements up to the first one not matching p.
func (s *Stream) While(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.add(&whileOp{pred: p})
}

// Until keeps elements up to the first one matching p.
func (s *Stream) Until(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.add(&whileOp{pred: p, until: true})
}

// Unique keeps the first element of each distinct value, key or pair.
func (s *Stream) Unique(mode Mode) *Stream {
	if !s.valid(validMode(validation.New(), mode)) {
		return s
	}
	return s.add(&uniqueOp{mode: mode, seen: make(map[any]struct{})})
}

// Flat replaces slices, arrays and maps with their elements, levels deep.
// Zero flattens every level.
func (s *Stream) Flat(levels int) *Stream {
	if !s.valid(validation.New().NonNegative("levels", levels)) {
		return s
	}
	return s.add(&flatOp{levels: levels})
}

// Tokenize replaces each string with its non-empty parts split by sep, or
// by white space when sep is empty.
func (s *Stream) Tokenize(sep string) *Stream {
	return s.add(&tokenizeOp{sep: sep})
}

// Feed pushes a copy of every element into branch, a stream created with
// Branch. Streams with Feed cannot run in pull mode.
func (s *Stream) Feed(branch *Stream) *Stream {
	v := validation.New().NotNil("branch", branch)
	if branch != nil {
		v.Custom(branch.branch, "branch", "must be created with Branch")
	}
	if !s.valid(v) {
		return s
	}
	return s.add(&feedOp{branch: branch})
}

// Chunk groups consecutive elements into []Item values of size elements.
func (s *Stream) Chunk(size int) *Stream {
	if !s.valid(validation.New().Positive("size", size)) {
		return s
	}
	return s.add(&chunkOp{size: size})
}

// Window emits the last size elements as a []Item every step elements.
func (s *Stream) Window(size, step int) *Stream {
	spec := WindowSpec{Size: size, Step: step}
	if !s.validStruct(spec) {
		return s
	}
	return s.add(&windowOp{spec: spec})
}

// Accumulate groups runs of consecutive elements matching p into []Item
// values and drops the rest.
func (s *Stream) Accumulate(p Predicate) *Stream {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s
	}
	return s.add(&accumulateOp{pred: p})
}

// Tail keeps the last n elements.
func (s *Stream) Tail(n int) *Stream {
	if !s.valid(validation.New().Positive("tail", n)) {
		return s
	}
	return s.add(&tailOp{n: n})
}

// Reverse emits the elements in reverse order.
func (s *Stream) Reverse() *Stream { return s.add(&reverseOp{}) }

// Shuffle emits the elements in random order.
func (s *Stream) Shuffle() *Stream { return s.add(&shuffleOp{rng: s.rng}) }

// Sort sorts the elements stably.
func (s *Stream) Sort(ord Ordering) *Stream { return s.add(&sortOp{ordering: ord}) }

// SortBy sorts the elements by value with c.
func (s *Stream) SortBy(c Comparator) *Stream { return s.Sort(ByValue(c)) }

// Best keeps the k first elements of ord, in order, using O(k) memory.
func (s *Stream) Best(k int, ord Ordering) *Stream {
	if !s.valid(validation.New().NonNegative("k", k)) {
		return s
	}
	return s.add(&sortLimitedOp{ordering: ord, k: k})
}

// Worst keeps the k last elements of ord, last first.
func (s *Stream) Worst(k int, ord Ordering) *Stream {
	return s.Best(k, ord.Reverse())
}

// Segregate groups equal-ranked elements into []Item buckets emitted in
// ord order, keeping at most buckets groups (zero keeps all).
func (s *Stream) Segregate(buckets int, ord Ordering) *Stream {
	spec := SegregateSpec{Buckets: buckets}
	if !s.validStruct(spec) {
		return s
	}
	return s.add(&segregateOp{ordering: ord, spec: spec})
}

// --- Terminals ---

func (s *Stream) finish(op Operation, out *outcome, transform func(any) any) *Result {
	r := &Result{stream: s, out: out, transform: transform}
	s.add(op)
	if s.result == nil && s.err == nil {
		s.result = r
	}
	if s.branch && s.err != nil {
		r.settle(s.err)
	}
	return r
}

// failed returns a Result settled with the construction error.
func (s *Stream) failed() *Result {
	r := &Result{stream: s, out: &outcome{}}
	r.settle(s.err)
	return r
}

// First returns the first element.
func (s *Stream) First() *Result {
	out := &outcome{}
	return s.finish(&findOp{terminal: terminal{out: out}}, out, nil)
}

// Find returns the first element matching p.
func (s *Stream) Find(p Predicate) *Result {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&findOp{terminal: terminal{out: out}, pred: p}, out, nil)
}

// Last returns the last element.
func (s *Stream) Last() *Result {
	out := &outcome{}
	return s.finish(&lastOp{terminal: terminal{out: out}}, out, nil)
}

// Has returns whether any element matches p, as a bool.
func (s *Stream) Has(p Predicate) *Result {
	if !s.valid(validation.New().NotNil("predicate", p)) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&hasOp{terminal: terminal{out: out}, pred: p}, out, nil)
}

// Contains returns whether any value equals v, as a bool.
func (s *Stream) Contains(v any) *Result { return s.Has(Equal(v)) }

// IsEmpty returns whether the stream produces no element, as a bool.
func (s *Stream) IsEmpty() *Result {
	out := &outcome{}
	return s.finish(&isEmptyOp{terminal: terminal{out: out}}, out, nil)
}

// IsNotEmpty returns whether the stream produces an element, as a bool.
func (s *Stream) IsNotEmpty() *Result {
	out := &outcome{}
	return s.finish(&isEmptyOp{terminal: terminal{out: out}}, out, func(v any) any { return !v.(bool) })
}

// Count returns the number of elements as an int.
func (s *Stream) Count() *Result {
	out := &outcome{}
	return s.finish(&countOp{terminal: terminal{out: out}}, out, nil)
}

// Reduce feeds every value to r and returns its result, if any.
func (s *Stream) Reduce(r Reducer) *Result {
	if !s.valid(validation.New().NotNil("reducer", r)) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&reduceOp{terminal: terminal{out: out}, r: r}, out, nil)
}

// Fold combines the elements left to right, starting from init.
func (s *Stream) Fold(init any, fn func(acc, value any, key Key) (any, error)) *Result {
	if !s.valid(validation.New().Custom(fn != nil, "fn", "is required")) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&foldOp{terminal: terminal{out: out}, init: init, fn: fn}, out, nil)
}

// GroupBy returns the values grouped by class as a map[Key][]any.
func (s *Stream) GroupBy(d Discriminator) *Result {
	if !s.valid(validation.New().NotNil("discriminator", d)) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&groupByOp{terminal: terminal{out: out}, d: d}, out, nil)
}

// CollectTo sends the output to c, with keys when keepKeys is set, and
// returns c.
func (s *Stream) CollectTo(c Collector, keepKeys bool) *Result {
	if !s.valid(validation.New().NotNil("collector", c)) {
		return s.failed()
	}
	out := &outcome{}
	return s.finish(&collectOp{terminal: terminal{out: out}, c: c, keys: keepKeys}, out, nil)
}

// ToSlice returns the values as a []any.
func (s *Stream) ToSlice() *Result {
	out := &outcome{}
	op := &collectOp{terminal: terminal{out: out}, c: &SliceCollector{}}
	return s.finish(op, out, func(v any) any {
		if items := v.(*SliceCollector).Items; items != nil {
			return items
		}
		return []any{}
	})
}

// ToMap returns the elements as a map[Key]any. Later keys win.
func (s *Stream) ToMap() *Result {
	out := &outcome{}
	op := &collectOp{terminal: terminal{out: out}, c: &MapCollector{}, keys: true}
	return s.finish(op, out, func(v any) any {
		if items := v.(*MapCollector).Items; items != nil {
			return items
		}
		return map[Key]any{}
	})
}

// Run runs the stream for its side effects. A stream that already has a
// terminal runs that terminal.
func (s *Stream) Run(ctx context.Context) error {
	if s.result == nil && s.err == nil {
		out := &outcome{}
		s.finish(&drainOp{terminal: terminal{out: out}}, out, nil)
	}
	if s.result == nil {
		return s.err
	}
	return s.result.Eval(ctx)
}

// Iterator returns a pull iterator over the output. The chain runs in
// push mode and is suspended after each element.
func (s *Stream) Iterator() *Iterator {
	y := &yieldOp{terminal: terminal{out: &outcome{}}}
	s.add(y)
	return &Iterator{stream: s, yield: y}
}

// All returns the output as a range-over-func sequence. Breaking out of
// the loop ends the run.
func (s *Stream) All(ctx context.Context) iter.Seq2[Item, error] {
	return pipeline.Seq[Item](ctx, s.Iterator())
}

// Pull composes the chain as pipeline transformations over the source and
// returns the resulting iterator. Chains with Feed are UNSUPPORTED_MODE.
func (s *Stream) Pull(ctx context.Context) (pipeline.Iterator[Item], error) {
	s.add(&yieldOp{terminal: terminal{out: &outcome{}}})
	if s.branch {
		s.fail(errors.UnsupportedMode("pull", "branch"))
	}
	_, ops, err := s.build()
	if err != nil {
		return nil, err
	}
	p := sourcePipeline(s.source)
	for _, op := range ops {
		if p, err = op.BuildStream(p); err != nil {
			return nil, err
		}
	}
	s.log.Debug("pull chain built", logger.Fields(logger.FieldNodes, len(ops)))
	return p.Iter(ctx), nil
}

// build seals the chain for its single run.
func (s *Stream) build() (Operation, []Operation, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if s.started {
		return nil, nil, errors.Validation("stream has already run")
	}
	s.started = true
	head, ops, err := s.pipe.Build()
	if err != nil {
		return nil, nil, err
	}
	for _, op := range ops {
		if err := op.Prepare(); err != nil {
			return nil, nil, err
		}
	}
	return head, ops, nil
}

// settle completes the Result of a branch stream.
func (s *Stream) settle(err error) {
	if s.result != nil {
		s.result.settle(err)
	}
}
