package flow

import (
	"context"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/pipeline"
)

func TestSources(t *testing.T) {
	tests := []struct {
		name string
		src  func() Source
		want []any
	}{
		{"slice", func() Source { return FromSlice([]string{"a", "b"}) }, []any{"a", "b"}},
		{"map", func() Source { return FromMap(map[int]string{2: "b", 1: "a"}) }, []any{"a", "b"}},
		{"func", func() Source {
			n := 0
			return FromFunc(func() (any, bool, error) {
				n++
				return n, n <= 3, nil
			})
		}, []any{1, 2, 3}},
		{"recursive", func() Source {
			return Recursive(1, func(prev any) (any, bool, error) {
				next := prev.(int) * 2
				return next, next <= 16, nil
			})
		}, []any{1, 2, 4, 8, 16}},
		{"seq", func() Source { return FromSeq(slices.Values([]int{7, 8})) }, []any{7, 8}},
		{"seq2", func() Source { return FromSeq2(maps.All(map[string]int{"k": 1})) }, []any{1}},
		{"iterator", func() Source {
			return FromIterator(pipeline.FromSlice([]int{3, 4}).Iter(context.Background()))
		}, []any{3, 4}},
		{"reader", func() Source { return FromReader(strings.NewReader("one\ntwo\n")) }, []any{"one", "two"}},
		{"stream", func() Source {
			return FromStream(of(seq(1, 6)...).Filter(Where(even)))
		}, []any{2, 4, 6}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertValues(t, collectValues(t, From(tc.src(), quiet()...)), tc.want)
		})
	}
}

func TestMapSourceKeys(t *testing.T) {
	items := collect(t, From(FromMap(map[string]int{"b": 2, "a": 1}), quiet()...))
	if items[0].Key() != StrKey("a") || items[1].Key() != StrKey("b") {
		t.Errorf("unexpected keys %v", items)
	}
}

func TestEndlessSourceWithLimit(t *testing.T) {
	naturals := Recursive(0, func(prev any) (any, bool, error) { return prev.(int) + 1, true, nil })
	got, err := From(naturals, quiet()...).Filter(Where(even)).Limit(3).ToSlice().ToSlice()
	if err != nil {
		t.Fatal(err)
	}
	assertValues(t, got, []any{0, 2, 4})
}

func TestSourceErrorAbortsRun(t *testing.T) {
	boom := errors.Internal(context.Canceled)
	n := 0
	src := FromFunc(func() (any, bool, error) {
		n++
		if n == 3 {
			return nil, false, boom
		}
		return n, true, nil
	})
	var seen []any
	err := From(src, quiet()...).Tap(func(v any, _ Key) error {
		seen = append(seen, v)
		return nil
	}).Run(t.Context())
	if err != boom {
		t.Fatalf("expected the source error, got %v", err)
	}
	assertValues(t, seen, []any{1, 2})
}

func TestSourceIsClosed(t *testing.T) {
	src := &countingSource{values: seq(1, 5)}
	if err := From(src, quiet()...).First().Err(); err != nil {
		t.Fatal(err)
	}
	if !src.closed {
		t.Error("expected the source to be closed after an early stop")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := of(1, 2).Run(ctx)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIterator(t *testing.T) {
	it := of(1, 2, 3).Map(Transform(func(v any) any { return v.(int) * 10 })).Iterator()
	var got []any
	for {
		item, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, item.Value())
	}
	assertValues(t, got, []any{10, 20, 30})
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Error("expected an exhausted iterator to stay exhausted")
	}
}

func TestIteratorCloseStopsPulling(t *testing.T) {
	src := &countingSource{values: seq(1, 10)}
	it := From(src, quiet()...).Iterator()
	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("unexpected first pull %v %v", ok, err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if src.pulls != 1 {
		t.Errorf("expected 1 pull, got %d", src.pulls)
	}
	if !src.closed {
		t.Error("expected the source to be closed")
	}
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Error("expected no element after Close")
	}
}

func TestAllBreak(t *testing.T) {
	src := &countingSource{values: seq(1, 10)}
	var got []any
	for item, err := range From(src, quiet()...).All(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, item.Value())
		if len(got) == 2 {
			break
		}
	}
	assertValues(t, got, []any{1, 2})
	if !src.closed {
		t.Error("expected break to end the run")
	}
}

func TestAllReportsError(t *testing.T) {
	var errs int
	for _, err := range of(1, "x").Map(ToInt()).All(context.Background()) {
		if err != nil {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("expected one error, got %d", errs)
	}
}

func TestPullUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Stream
	}{
		{"feed", func() *Stream {
			b := Branch(quiet()...)
			b.Count()
			return of(1).Feed(b)
		}},
		{"branch", func() *Stream { return Branch(quiet()...) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build().Pull(context.Background())
			if !errors.HasCode(err, errors.ErrCodeUnsupportedMode) {
				t.Errorf("expected UNSUPPORTED_MODE, got %v", err)
			}
		})
	}
}

func TestFeedBranches(t *testing.T) {
	evens := Branch(quiet()...)
	evenCount := evens.Filter(Where(even)).Count()
	firstBig := Branch(quiet()...)
	big := firstBig.Find(GreaterThan(3))

	main := of(seq(1, 6)...).Feed(evens).Feed(firstBig).Map(Transform(func(v any) any { return -v.(int) })).ToSlice()

	if err := evenCount.Err(); !errors.HasCode(err, errors.ErrCodeUnsupportedMode) {
		t.Fatalf("expected a branch result to wait for its feeder, got %v", err)
	}
	got, err := main.ToSlice()
	if err != nil {
		t.Fatal(err)
	}
	assertValues(t, got, []any{-1, -2, -3, -4, -5, -6})
	if n, _ := evenCount.Get(); n != 3 {
		t.Errorf("expected 3 evens, got %v", n)
	}
	if v, _ := big.Get(); v != 4 {
		t.Errorf("expected 4, got %v", v)
	}
}

func TestFeedSeesLimitedStream(t *testing.T) {
	b := Branch(quiet()...)
	seen := b.ToSlice()
	if err := of(seq(1, 9)...).Limit(2).Feed(b).Run(t.Context()); err != nil {
		t.Fatal(err)
	}
	got, err := seen.ToSlice()
	if err != nil {
		t.Fatal(err)
	}
	assertValues(t, got, []any{1, 2})
}

func TestFeedBranchSortsAtEnd(t *testing.T) {
	b := Branch(quiet()...)
	sorted := b.Sort(ByValue(nil).Reverse()).ToSlice()
	if err := of(2, 9, 4).Feed(b).Run(t.Context()); err != nil {
		t.Fatal(err)
	}
	got, _ := sorted.ToSlice()
	assertValues(t, got, []any{9, 4, 2})
}

func TestFeedBranchErrorFailsHost(t *testing.T) {
	b := Branch(quiet()...)
	r := b.Map(ToInt()).Count()
	err := of(1, "x").Feed(b).Run(t.Context())
	if !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}
	if !errors.HasCode(r.Err(), errors.ErrCodeTypeMismatch) {
		t.Errorf("expected the branch to share the failure, got %v", r.Err())
	}
}

func TestFeedRejectsIteratorBranch(t *testing.T) {
	b := Branch(quiet()...)
	b.Iterator()
	err := of(1).Feed(b).Run(t.Context())
	if !errors.HasCode(err, errors.ErrCodeUnsupportedMode) {
		t.Errorf("expected UNSUPPORTED_MODE, got %v", err)
	}
}
