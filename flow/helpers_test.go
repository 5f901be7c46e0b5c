package flow

import (
	"context"
	"reflect"
	"testing"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/logger"
)

func testConfig(fusion bool) *config.EngineConfig {
	cfg := config.DefaultEngineConfig()
	cfg.Fusion.Enabled = fusion
	cfg.Telemetry.Enabled = false
	return cfg
}

func quiet(extra ...Option) []Option {
	return append([]Option{WithConfig(testConfig(true)), WithLogger(logger.Nop())}, extra...)
}

func unfused(extra ...Option) []Option {
	return append([]Option{WithConfig(testConfig(false)), WithLogger(logger.Nop())}, extra...)
}

func of(values ...any) *Stream { return From(FromSlice(values), quiet()...) }

func seq(from, to int) []any {
	var out []any
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// collect runs s through its iterator and returns every element.
func collect(t *testing.T, s *Stream) []Item {
	t.Helper()
	var out []Item
	for it, err := range s.All(context.Background()) {
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		out = append(out, it)
	}
	return out
}

// pulled runs s in pull mode and returns every element.
func pulled(t *testing.T, s *Stream) []Item {
	t.Helper()
	ctx := context.Background()
	it, err := s.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	defer it.Close()
	var out []Item
	for {
		item, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("pull failed: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

func collectValues(t *testing.T, s *Stream) []any {
	t.Helper()
	return Values(collect(t, s))
}

func groupValues(t *testing.T, items []Item) [][]any {
	t.Helper()
	out := make([][]any, len(items))
	for i, it := range items {
		group, ok := it.Value().([]Item)
		if !ok {
			t.Fatalf("element %d is %T, want []Item", i, it.Value())
		}
		out[i] = Values(group)
	}
	return out
}

func assertValues(t *testing.T, got, want []any) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// countingSource counts pulls and is deliberately not a Counter.
type countingSource struct {
	values []any
	pulls  int
	closed bool
}

func (s *countingSource) Next(_ context.Context, c *Cursor) (bool, error) {
	if s.pulls >= len(s.values) {
		return false, nil
	}
	c.Set(IntKey(s.pulls), s.values[s.pulls])
	s.pulls++
	return true, nil
}

func (s *countingSource) Close() error {
	s.closed = true
	return nil
}
