package flow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		p     Predicate
		value any
		want  bool
	}{
		{"equal", Equal(3), 3, true},
		{"equal across number types", Equal(3), 3.0, true},
		{"equal slices", Equal([]int{1}), []int{1}, true},
		{"not equal", NotEqual("a"), "b", true},
		{"greater", GreaterThan(2), 3, true},
		{"greater or equal", GreaterOrEqual(3), 3, true},
		{"less", LessThan(2), 3, false},
		{"less or equal", LessOrEqual("b"), "a", true},
		{"nil", IsNil(), nil, true},
		{"typed nil", IsNil(), (*int)(nil), true},
		{"not nil", IsNil(), 0, false},
		{"one of", OneOf(1, "x"), "x", true},
		{"none of", OneOf(1, "x"), 2, false},
		{"not", Not(Equal(1)), 1, false},
		{"and", And(GreaterThan(1), LessThan(5)), 3, true},
		{"and fails", And(GreaterThan(1), LessThan(5)), 7, false},
		{"or", Or(Equal(1), Equal(2)), 2, true},
		{"where", Where(func(v any) bool { return v == "ok" }), "ok", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.Test(tc.value, IntKey(0))
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Test(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestByKey(t *testing.T) {
	ok, err := ByKey(Equal("id")).Test(1, StrKey("id"))
	if err != nil || !ok {
		t.Errorf("expected the key to match, got %v %v", ok, err)
	}
}

func TestComparisonTypeMismatch(t *testing.T) {
	_, err := GreaterThan(1).Test("a", IntKey(0))
	if !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestNaturalOrder(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 1, 2, -1},
		{"int and float", 2, 1.5, 1},
		{"unsigned", uint8(3), 3, 0},
		{"strings", "b", "a", 1},
		{"bools", false, true, -1},
		{"times", now, now.Add(time.Second), -1},
		{"nil first", nil, 0, -1},
		{"keys", StrKey("a"), IntKey(9), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Natural().Compare(tc.a, tc.b)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
	if _, err := Natural().Compare(1, "1"); !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestOrderingModes(t *testing.T) {
	a := NewItem(IntKey(2), "x")
	b := NewItem(IntKey(1), "x")
	tests := []struct {
		name string
		ord  Ordering
		want int
	}{
		{"value tie", ByValue(nil), 0},
		{"keys", ByKeys(nil), 1},
		{"value then key", ByValueThenKey(nil), 1},
		{"reversed", ByValueThenKey(nil).Reverse(), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ord.resolve().compare(a, b)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("compare = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMappers(t *testing.T) {
	type record struct{ Name string }
	tests := []struct {
		name  string
		m     Mapper
		value any
		want  any
	}{
		{"int from string", ToInt(), " 42 ", 42},
		{"int from float", ToInt(), -2.7, -2},
		{"float from int", ToFloat(), 3, 3.0},
		{"float from bool", ToFloat(), true, 1.0},
		{"string from float", ToString(), 1.5, "1.5"},
		{"string from key", ToString(), StrKey("k"), "k"},
		{"field of map", Field("a"), map[string]int{"a": 7}, 7},
		{"field of struct", Field("Name"), record{Name: "n"}, "n"},
		{"field of pointer", Field("Name"), &record{Name: "p"}, "p"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.m.Map(tc.value, IntKey(0))
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Map(%v) = %v (%T), want %v", tc.value, got, got, tc.want)
			}
		})
	}
}

func TestMapperErrors(t *testing.T) {
	for name, m := range map[string]Mapper{
		"to-int":    ToInt(),
		"to-float":  ToFloat(),
		"field":     Field("missing"),
		"pick":      pick([]string{"missing"}),
		"not a map": Field("x"),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Map(struct{}{}, IntKey(0)); !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
				t.Errorf("expected TYPE_MISMATCH, got %v", err)
			}
		})
	}
}

func TestCastAbsorbs(t *testing.T) {
	op := newMap(ToInt())
	op.absorb(ToInt())
	op.absorb(ToString())
	if len(op.mappers) != 2 {
		t.Errorf("expected a repeated cast to be absorbed, got %d mappers", len(op.mappers))
	}
}

func TestReducers(t *testing.T) {
	tests := []struct {
		name   string
		r      Reducer
		values []any
		want   any
	}{
		{"sum ints", Sum(), []any{1, 2, int64(3)}, 6},
		{"sum mixed", Sum(), []any{1, 0.5}, 1.5},
		{"average", Average(), []any{1, 2, 4, 5}, 3.0},
		{"min", Min(), []any{3, 1, 2}, 1},
		{"max", Max(), []any{"a", "c", "b"}, "c"},
		{"concat", Concat(", "), []any{"a", 1, true}, "a, 1, true"},
		{"count", Count(), []any{nil, nil}, 2},
		{"count of nothing", Count(), nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := of(tc.values...).Reduce(tc.r).Get()
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestReducerIsReset(t *testing.T) {
	r := Sum()
	first, _ := of(1, 2).Reduce(r).Get()
	second, _ := of(5).Reduce(r).Get()
	if first != 3 || second != 5 {
		t.Errorf("expected 3 and 5, got %v and %v", first, second)
	}
}

func TestSumTypeMismatch(t *testing.T) {
	err := of(1, "2").Reduce(Sum()).Err()
	if !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestKeyOf(t *testing.T) {
	tests := []struct {
		in      any
		want    Key
		wantErr bool
	}{
		{3, IntKey(3), false},
		{int64(-4), IntKey(-4), false},
		{uint16(5), IntKey(5), false},
		{"s", StrKey("s"), false},
		{StrKey("k"), StrKey("k"), false},
		{1.5, Key{}, true},
		{nil, Key{}, true},
	}
	for _, tc := range tests {
		got, err := KeyOf(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("KeyOf(%v) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("KeyOf(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestKeyCompare(t *testing.T) {
	if IntKey(1).Compare(IntKey(2)) >= 0 || StrKey("a").Compare(IntKey(100)) <= 0 {
		t.Error("expected ints before strings, each in natural order")
	}
	if StrKey("a").Compare(StrKey("a")) != 0 {
		t.Error("expected equal keys")
	}
}

func TestItemJSON(t *testing.T) {
	b, err := json.Marshal(NewItem(StrKey("k"), []int{1}))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"key":"k","value":[1]}` {
		t.Errorf("unexpected JSON %s", b)
	}
}

func TestCursorSnapshotIsStable(t *testing.T) {
	var c Cursor
	c.Set(IntKey(1), "a")
	snap := c.Snapshot()
	c.Set(IntKey(2), "b")
	if k, _ := snap.Key().Int(); k != 1 || snap.Value() != "a" {
		t.Errorf("snapshot changed to %v", snap)
	}
}
