package flow

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/kbukum/flowkit/errors"
)

func TestTerminals(t *testing.T) {
	tests := []struct {
		name  string
		input []any
		build func(*Stream) *Result
		want  any
		found bool
	}{
		{"first", []any{4, 5}, (*Stream).First, 4, true},
		{"first of empty", nil, (*Stream).First, nil, false},
		{"last", []any{4, 5}, (*Stream).Last, 5, true},
		{"last of empty", nil, (*Stream).Last, nil, false},
		{"find", seq(1, 9), func(s *Stream) *Result { return s.Find(GreaterThan(6)) }, 7, true},
		{"find none", seq(1, 3), func(s *Stream) *Result { return s.Find(GreaterThan(6)) }, nil, false},
		{"has", seq(1, 3), func(s *Stream) *Result { return s.Has(Equal(2)) }, true, true},
		{"has not", seq(1, 3), func(s *Stream) *Result { return s.Has(Equal(9)) }, false, true},
		{"contains", []any{"a", "b"}, func(s *Stream) *Result { return s.Contains("b") }, true, true},
		{"is empty", nil, (*Stream).IsEmpty, true, true},
		{"is not empty", seq(1, 2), (*Stream).IsNotEmpty, true, true},
		{"count", seq(1, 4), (*Stream).Count, 4, true},
		{"count filtered", seq(1, 4), func(s *Stream) *Result { return s.Filter(Where(even)).Count() }, 2, true},
		{"sum", seq(1, 4), func(s *Stream) *Result { return s.Reduce(Sum()) }, 10, true},
		{"sum of empty", nil, func(s *Stream) *Result { return s.Reduce(Sum()) }, nil, false},
		{"fold", seq(1, 4), func(s *Stream) *Result {
			return s.Fold(1, func(acc, v any, _ Key) (any, error) { return acc.(int) * v.(int), nil })
		}, 24, true},
		{"to slice of empty", nil, (*Stream).ToSlice, []any{}, true},
		{"to map", []any{"a", "b"}, (*Stream).ToMap, map[Key]any{IntKey(0): "a", IntKey(1): "b"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.build(of(tc.input...))
			if r.Found() != tc.found {
				t.Fatalf("Found() = %v, want %v", r.Found(), tc.found)
			}
			if got := r.GetOr(nil); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestResultKey(t *testing.T) {
	r := of("a", "b", "c").Find(Equal("b"))
	k, err := r.Key()
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := k.Int(); i != 1 {
		t.Errorf("expected key 1, got %v", k)
	}

	_, err = of().First().Key()
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestResultGetNotFound(t *testing.T) {
	r := of(1, 2).Find(Equal(3))
	if _, err := r.Get(); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if got := r.GetOr("default"); got != "default" {
		t.Errorf("expected default, got %v", got)
	}
	got, err := r.ToSlice()
	if err != nil || len(got) != 0 {
		t.Errorf("expected an empty slice, got %v, %v", got, err)
	}
}

func TestResultToSlice(t *testing.T) {
	tests := []struct {
		name string
		r    *Result
		want []any
	}{
		{"slice", of(1, 2).ToSlice(), []any{1, 2}},
		{"scalar", of(1, 2).Count(), []any{2}},
		{"map by key", From(FromMap(map[string]int{"b": 2, "a": 1}), quiet()...).ToMap(), []any{1, 2}},
		{"groups", of(1, 2, 3, 4).GroupBy(DiscriminatorFunc(func(v any, _ Key) (any, error) {
			if v.(int)%2 == 0 {
				return "even", nil
			}
			return "odd", nil
		})), []any{[]any{2, 4}, []any{1, 3}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.r.ToSlice()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResultToJSON(t *testing.T) {
	b, err := of(1, 2).ToSlice().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[1,2]" {
		t.Errorf("unexpected JSON %s", b)
	}

	b, err = of("x").ToMap().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil || m["0"] != "x" {
		t.Errorf("unexpected JSON %s: %v", b, err)
	}

	b, err = of().First().ToJSON()
	if err != nil || string(b) != "null" {
		t.Errorf("expected null, got %s, %v", b, err)
	}
}

func TestCollectTo(t *testing.T) {
	c := &MapCollector{}
	items := []Item{NewItem(StrKey("a"), 1), NewItem(StrKey("b"), 2), NewItem(StrKey("a"), 3)}
	r := From(FromItems(items), quiet()...).CollectTo(c, true)
	v, err := r.Get()
	if err != nil {
		t.Fatal(err)
	}
	if v != Collector(c) {
		t.Errorf("expected the collector back, got %v", v)
	}
	want := map[Key]any{StrKey("a"): 3, StrKey("b"): 2}
	if !reflect.DeepEqual(c.Items, want) {
		t.Errorf("got %v, want %v", c.Items, want)
	}

	sc := &SliceCollector{}
	if err := From(FromItems(items), quiet()...).CollectTo(sc, false).Err(); err != nil {
		t.Fatal(err)
	}
	assertValues(t, sc.Items, []any{1, 2, 3})
}

// Count and IsEmpty answer from a sized source without pulling it.
func TestSourceShortcuts(t *testing.T) {
	src := &countedSlice{sliceSource: sliceSource[any]{values: seq(1, 5)}}
	if n, _ := From(src, quiet()...).Count().Get(); n != 5 {
		t.Errorf("expected 5, got %v", n)
	}
	if src.pulls != 0 {
		t.Errorf("expected no pulls, got %d", src.pulls)
	}

	src = &countedSlice{sliceSource: sliceSource[any]{values: seq(1, 5)}}
	if v, _ := From(src, quiet()...).Last().Get(); v != 5 {
		t.Errorf("expected 5, got %v", v)
	}
	if src.pulls != 0 {
		t.Errorf("expected no pulls, got %d", src.pulls)
	}

	src = &countedSlice{sliceSource: sliceSource[any]{values: seq(1, 5)}}
	if n, _ := From(src, quiet()...).Skip(1).Count().Get(); n != 4 {
		t.Errorf("expected 4, got %v", n)
	}
	if src.pulls != 5 {
		t.Errorf("expected a full pass, got %d pulls", src.pulls)
	}
}

type countedSlice struct {
	sliceSource[any]
	pulls int
}

func (s *countedSlice) Next(ctx context.Context, c *Cursor) (bool, error) {
	ok, err := s.sliceSource.Next(ctx, c)
	if ok {
		s.pulls++
	}
	return ok, err
}

// Terminals that stop early leave the rest of the source unread.
func TestEarlyTermination(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Stream) *Result
		pulls int
	}{
		{"first", (*Stream).First, 1},
		{"find", func(s *Stream) *Result { return s.Find(Equal(3)) }, 3},
		{"has", func(s *Stream) *Result { return s.Has(Equal(2)) }, 2},
		{"is empty", (*Stream).IsEmpty, 1},
		{"while", func(s *Stream) *Result { return s.While(LessThan(3)).Count() }, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &countingSource{values: seq(1, 10)}
			if err := tc.build(From(src, quiet()...)).Err(); err != nil {
				t.Fatal(err)
			}
			if src.pulls != tc.pulls {
				t.Errorf("expected %d pulls, got %d", tc.pulls, src.pulls)
			}
		})
	}
}
