package flow

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/pipeline"
)

// --- Filter ---

type filterOp struct {
	link
	preds allOf
}

func newFilter(p Predicate) *filterOp { return &filterOp{preds: allOf{p}} }

func (o *filterOp) Kind() Kind { return KindFilter }

func (o *filterOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	ok, err := o.preds.Test(c.Value(), c.Key())
	if err != nil || !ok {
		return err
	}
	return o.next.Handle(sig)
}

func (o *filterOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.FilterErr(p, func(_ context.Context, it Item) (bool, error) {
		return o.preds.Test(it.value, it.key)
	}), nil
}

// --- Map ---

type mapOp struct {
	link
	mappers multiMapper
}

func newMap(m Mapper) *mapOp { return &mapOp{mappers: multiMapper{m}} }

func (o *mapOp) Kind() Kind { return KindMap }

// absorb folds m into the last mapper when possible and appends it
// otherwise.
func (o *mapOp) absorb(m Mapper) {
	last := o.mappers[len(o.mappers)-1]
	if a, ok := last.(Absorber); ok {
		if merged, ok := a.Absorb(m); ok {
			o.mappers[len(o.mappers)-1] = merged
			return
		}
	}
	o.mappers = append(o.mappers, m)
}

func (o *mapOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	v, err := o.mappers.Map(c.Value(), c.Key())
	if err != nil {
		return err
	}
	c.SetValue(v)
	return o.next.Handle(sig)
}

func (o *mapOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Map(p, func(_ context.Context, it Item) (Item, error) {
		v, err := o.mappers.Map(it.value, it.key)
		return NewItem(it.key, v), err
	}), nil
}

// --- MapKey ---

type mapKeyOp struct {
	link
	mapper Mapper
}

func (o *mapKeyOp) Kind() Kind { return KindMapKey }

func (o *mapKeyOp) rekey(it Item) (Key, error) {
	v, err := o.mapper.Map(it.value, it.key)
	if err != nil {
		return Key{}, err
	}
	return KeyOf(v)
}

func (o *mapKeyOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	k, err := o.rekey(c.Snapshot())
	if err != nil {
		return err
	}
	c.SetKey(k)
	return o.next.Handle(sig)
}

func (o *mapKeyOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Map(p, func(_ context.Context, it Item) (Item, error) {
		k, err := o.rekey(it)
		return NewItem(k, it.value), err
	}), nil
}

// --- Reindex ---

type reindexOp struct {
	link
	start, step int
	n           int
}

func (o *reindexOp) Kind() Kind { return KindReindex }

func (o *reindexOp) Handle(sig *Signal) error {
	sig.Cursor().SetKey(IntKey(o.start + o.n*o.step))
	o.n++
	return o.next.Handle(sig)
}

func (o *reindexOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.MapIndexed(p, func(_ context.Context, i int, it Item) (Item, error) {
		return NewItem(IntKey(o.start+i*o.step), it.value), nil
	}), nil
}

// --- Flip ---

type flipOp struct{ link }

func (o *flipOp) Kind() Kind { return KindFlip }

func flipItem(it Item) (Item, error) {
	k, err := KeyOf(it.value)
	if err != nil {
		return Item{}, err
	}
	return NewItem(k, it.key.Value()), nil
}

func (o *flipOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	it, err := flipItem(c.Snapshot())
	if err != nil {
		return err
	}
	c.Load(it)
	return o.next.Handle(sig)
}

func (o *flipOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Map(p, func(_ context.Context, it Item) (Item, error) { return flipItem(it) }), nil
}

// --- Tap ---

type tapOp struct {
	link
	fn func(value any, key Key) error
}

func (o *tapOp) Kind() Kind { return KindTap }

func (o *tapOp) Handle(sig *Signal) error {
	c := sig.Cursor()
	if err := o.fn(c.Value(), c.Key()); err != nil {
		return err
	}
	return o.next.Handle(sig)
}

func (o *tapOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Tap(p, func(_ context.Context, it Item) error { return o.fn(it.value, it.key) }), nil
}

// --- Assert ---

type assertOp struct {
	link
	pred Predicate
	mode Mode
}

func (o *assertOp) Kind() Kind { return KindAssert }

func (o *assertOp) check(it Item) error {
	var ok bool
	var err error
	switch o.mode {
	case ModeKey:
		ok, err = o.pred.Test(it.key.Value(), it.key)
	case ModeBoth:
		if ok, err = o.pred.Test(it.value, it.key); ok && err == nil {
			ok, err = o.pred.Test(it.key.Value(), it.key)
		}
	default:
		ok, err = o.pred.Test(it.value, it.key)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.AssertionFailed(o.mode.String(), it.value, it.key.Value())
	}
	return nil
}

func (o *assertOp) Handle(sig *Signal) error {
	if err := o.check(sig.Cursor().Snapshot()); err != nil {
		return err
	}
	return o.next.Handle(sig)
}

func (o *assertOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Tap(p, func(_ context.Context, it Item) error { return o.check(it) }), nil
}

// --- Skip ---

type skipOp struct {
	link
	n         int
	remaining int
}

func newSkip(n int) *skipOp { return &skipOp{n: n, remaining: n} }

func (o *skipOp) Kind() Kind { return KindSkip }

func (o *skipOp) Start(sig *Signal) error {
	o.remaining = o.n
	if o.n == 0 {
		sig.Forget(o)
	}
	return nil
}

func (o *skipOp) Handle(sig *Signal) error {
	if o.remaining > 0 {
		o.remaining--
		if o.remaining == 0 {
			sig.Forget(o)
		}
		return nil
	}
	return o.next.Handle(sig)
}

func (o *skipOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Skip(p, o.n), nil
}

// --- SkipWhile ---

type skipWhileOp struct {
	link
	pred     Predicate
	skipping bool
}

func (o *skipWhileOp) Kind() Kind { return KindSkipWhile }

func (o *skipWhileOp) Start(*Signal) error {
	o.skipping = true
	return nil
}

func (o *skipWhileOp) Handle(sig *Signal) error {
	if o.skipping {
		c := sig.Cursor()
		ok, err := o.pred.Test(c.Value(), c.Key())
		if err != nil || ok {
			return err
		}
		o.skipping = false
		sig.Forget(o)
	}
	return o.next.Handle(sig)
}

func (o *skipWhileOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.SkipWhile(p, func(_ context.Context, it Item) (bool, error) {
		return o.pred.Test(it.value, it.key)
	}), nil
}

// --- Limit ---

type limitOp struct {
	link
	n     int
	count int
}

func (o *limitOp) Kind() Kind { return KindLimit }

func (o *limitOp) Start(sig *Signal) error {
	o.count = 0
	if o.n == 0 {
		sig.Stop()
	}
	return nil
}

func (o *limitOp) Handle(sig *Signal) error {
	if o.count >= o.n {
		sig.Stop()
		return nil
	}
	o.count++
	err := o.next.Handle(sig)
	if o.count >= o.n {
		sig.Stop()
	}
	return err
}

func (o *limitOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Take(p, o.n), nil
}

// --- While / Until ---

// whileOp forwards elements while pred matches. With until set it forwards
// elements until pred matches. The deciding element is never forwarded.
type whileOp struct {
	link
	pred  Predicate
	until bool
	ended bool
}

func (o *whileOp) Kind() Kind {
	if o.until {
		return KindUntil
	}
	return KindWhile
}

func (o *whileOp) Start(*Signal) error {
	o.ended = false
	return nil
}

func (o *whileOp) pass(it Item) (bool, error) {
	ok, err := o.pred.Test(it.value, it.key)
	return ok != o.until, err
}

func (o *whileOp) Handle(sig *Signal) error {
	if !o.ended {
		ok, err := o.pass(sig.Cursor().Snapshot())
		if err != nil {
			return err
		}
		if ok {
			return o.next.Handle(sig)
		}
		o.ended = true
	}
	sig.Stop()
	return nil
}

func (o *whileOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.TakeWhile(p, func(_ context.Context, it Item) (bool, error) { return o.pass(it) }), nil
}

// --- Unique ---

type uniqueOp struct {
	link
	mode Mode
	seen map[any]struct{}
}

func (o *uniqueOp) Kind() Kind { return KindUnique }

func (o *uniqueOp) Start(*Signal) error {
	o.seen = make(map[any]struct{})
	return nil
}

func (o *uniqueOp) identity(it Item) any {
	switch o.mode {
	case ModeKey:
		return it.key
	case ModeBoth:
		return [2]any{it.key, hashable(it.value)}
	default:
		return hashable(it.value)
	}
}

func (o *uniqueOp) Handle(sig *Signal) error {
	id := o.identity(sig.Cursor().Snapshot())
	if _, dup := o.seen[id]; dup {
		return nil
	}
	o.seen[id] = struct{}{}
	return o.next.Handle(sig)
}

func (o *uniqueOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.Distinct(p, o.identity), nil
}

// hashable returns v when it can be a map key and a printed form of it
// otherwise.
func hashable(v any) any {
	if v == nil || reflect.ValueOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

// --- Flat ---

type flatOp struct {
	link
	levels int // 0 flattens every level
	child  Operation
}

func (o *flatOp) Kind() Kind { return KindFlat }

func (o *flatOp) Prepare() error {
	switch o.levels {
	case 0:
		o.child = o
	case 1:
		o.child = o.next
	default:
		child := &flatOp{levels: o.levels - 1}
		child.SetNext(o.next)
		if err := child.Prepare(); err != nil {
			return err
		}
		o.child = child
	}
	return nil
}

func (o *flatOp) Handle(sig *Signal) error {
	children, ok := expand(sig.Cursor().Value())
	if !ok {
		return o.next.Handle(sig)
	}
	sig.ContinueWith(FromItems(children), o.child)
	return nil
}

func (o *flatOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.FlatMap(p, func(ctx context.Context, it Item) (pipeline.Iterator[Item], error) {
		return pipeline.FromSlice(flatten(it, o.levels)).Iter(ctx), nil
	}), nil
}

func flatten(it Item, levels int) []Item {
	children, ok := expand(it.value)
	if !ok {
		return []Item{it}
	}
	if levels == 1 {
		return children
	}
	next := levels - 1
	if levels == 0 {
		next = 0
	}
	var out []Item
	for _, child := range children {
		out = append(out, flatten(child, next)...)
	}
	return out
}

// expand lists the elements of slices, arrays and maps with int or string
// keys. Strings and byte slices are not expanded.
func expand(v any) ([]Item, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []Item:
		return slices.Clone(x), true
	case []any:
		out := make([]Item, len(x))
		for i, e := range x {
			out[i] = NewItem(IntKey(i), e)
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Item, rv.Len())
		for i := range out {
			out[i] = NewItem(IntKey(i), rv.Index(i).Interface())
		}
		return out, true
	case reflect.Map:
		out := make([]Item, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := KeyOf(iter.Key().Interface())
			if err != nil {
				return nil, false
			}
			out = append(out, NewItem(k, iter.Value().Interface()))
		}
		slices.SortFunc(out, func(a, b Item) int { return a.key.Compare(b.key) })
		return out, true
	}
	return nil, false
}

// --- Tokenize ---

type tokenizeOp struct {
	link
	sep string // empty splits on white space
}

func (o *tokenizeOp) Kind() Kind { return KindTokenize }

func (o *tokenizeOp) tokens(v any) ([]string, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.TypeMismatch("tokenize", "string", v)
	}
	if o.sep == "" {
		return strings.Fields(s), nil
	}
	parts := strings.Split(s, o.sep)
	return slices.DeleteFunc(parts, func(p string) bool { return p == "" }), nil
}

func (o *tokenizeOp) Handle(sig *Signal) error {
	toks, err := o.tokens(sig.Cursor().Value())
	if err != nil {
		return err
	}
	sig.ContinueWith(FromSlice(toks), o.next)
	return nil
}

func (o *tokenizeOp) BuildStream(p *pipeline.Pipeline[Item]) (*pipeline.Pipeline[Item], error) {
	return pipeline.FlatMap(p, func(ctx context.Context, it Item) (pipeline.Iterator[Item], error) {
		toks, err := o.tokens(it.value)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(toks))
		for i, t := range toks {
			items[i] = NewItem(IntKey(i), t)
		}
		return pipeline.FromSlice(items).Iter(ctx), nil
	}), nil
}
