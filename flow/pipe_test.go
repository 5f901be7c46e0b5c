package flow

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

func TestFusionRules(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Stream) *Stream
		kinds []Kind
		rules []string
	}{
		{"filter merge", func(s *Stream) *Stream { return s.Filter(Where(even)).Filter(Where(even)) },
			[]Kind{KindFilter}, []string{RuleFilterMerge}},
		{"map merge", func(s *Stream) *Stream { return s.Map(ToInt()).Map(ToString()) },
			[]Kind{KindMap}, []string{RuleMapMerge}},
		{"limit merge", func(s *Stream) *Stream { return s.Limit(4).Limit(2) },
			[]Kind{KindLimit}, []string{RuleLimitMerge}},
		{"reverse cancel", func(s *Stream) *Stream { return s.Filter(Where(even)).Reverse().Reverse() },
			[]Kind{KindFilter}, []string{RuleReverseCancel}},
		{"sort limit", func(s *Stream) *Stream { return s.Sort(ByValue(nil)).Limit(3) },
			[]Kind{KindSortLimited}, []string{RuleSortLimit}},
		{"sort tail", func(s *Stream) *Stream { return s.Sort(ByValue(nil)).Tail(3) },
			[]Kind{KindSortLimited, KindReverse}, []string{RuleSortTail}},
		{"limit tail dropped", func(s *Stream) *Stream { return s.Limit(3).Tail(5) },
			[]Kind{KindLimit}, []string{RuleLimitTail}},
		{"limit tail kept", func(s *Stream) *Stream { return s.Limit(5).Tail(3) },
			[]Kind{KindLimit, KindTail}, nil},
		{"unique hoisted over sort", func(s *Stream) *Stream { return s.Sort(ByValue(nil)).Unique(ModeValue) },
			[]Kind{KindUnique, KindSort}, []string{RuleUniqueHoist}},
		{"unique kept after custom sort", func(s *Stream) *Stream {
			return s.SortBy(ComparatorFunc(func(a, b any) (int, error) { return 0, nil })).Unique(ModeValue)
		}, []Kind{KindSort, KindUnique}, nil},
		{"unique kept after key sort", func(s *Stream) *Stream { return s.Sort(ByKeys(nil)).Unique(ModeValue) },
			[]Kind{KindSort, KindUnique}, nil},
		{"unique kept after reverse", func(s *Stream) *Stream { return s.Reverse().Unique(ModeValue) },
			[]Kind{KindReverse, KindUnique}, nil},
		{"unique hoisted over shuffle", func(s *Stream) *Stream { return s.Shuffle().Unique(ModeKey) },
			[]Kind{KindUnique, KindShuffle}, []string{RuleUniqueHoist}},
		{"flat merge", func(s *Stream) *Stream { return s.Flat(1).Flat(2) },
			[]Kind{KindFlat}, []string{RuleFlatMerge}},
		{"reorders dropped before count", func(s *Stream) *Stream {
			s.Reverse().Sort(ByValue(nil)).Count()
			return s
		}, []Kind{KindCount}, []string{RuleTerminalDrop, RuleTerminalDrop}},
		{"reindex dropped before is-empty", func(s *Stream) *Stream {
			s.Reindex(1, 1).IsEmpty()
			return s
		}, []Kind{KindIsEmpty}, []string{RuleTerminalDrop}},
		{"sort kept before find", func(s *Stream) *Stream {
			s.Sort(ByValue(nil)).Find(Equal(1))
			return s
		}, []Kind{KindSort, KindFind}, nil},
		{"reindex kept before has", func(s *Stream) *Stream {
			s.Reindex(1, 1).Has(Equal(1))
			return s
		}, []Kind{KindReindex, KindHas}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.build(of(1, 2, 3))
			if !slices.Equal(s.Kinds(), tc.kinds) {
				t.Errorf("kinds = %v, want %v", s.Kinds(), tc.kinds)
			}
			var applied []string
			for _, rw := range s.Rewrites() {
				applied = append(applied, rw.Rule)
			}
			if !slices.Equal(applied, tc.rules) {
				t.Errorf("rules = %v, want %v", applied, tc.rules)
			}
		})
	}
}

func TestFusionDisabled(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Telemetry.Enabled = false
	cfg.Fusion.DisabledRules = []string{RuleSkipMerge}
	s := From(FromSlice(seq(1, 9)), WithConfig(cfg), WithLogger(logger.Nop())).
		Skip(1).Skip(1).Limit(5).Limit(4)
	want := []Kind{KindSkip, KindSkip, KindLimit}
	if !slices.Equal(s.Kinds(), want) {
		t.Errorf("kinds = %v, want %v", s.Kinds(), want)
	}

	plain := From(FromSlice(seq(1, 9)), unfused()...).Reverse().Reverse()
	if len(plain.Kinds()) != 2 || len(plain.Rewrites()) != 0 {
		t.Errorf("expected no rewrite with fusion off, got %v", plain.Kinds())
	}
}

func TestPipeBuild(t *testing.T) {
	p := NewPipe(config.FusionConfig{Enabled: true}, nil, nil)
	if _, _, err := p.Build(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for an empty chain, got %v", err)
	}
	if err := p.Append(newFilter(Where(even))); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Build(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without a terminal, got %v", err)
	}

	count := &countOp{terminal: terminal{out: &outcome{}}}
	if err := p.Append(count); err != nil {
		t.Fatal(err)
	}
	if !p.Sealed() {
		t.Error("expected the pipe to be sealed")
	}
	if err := p.Append(newSkip(1)); !errors.HasCode(err, errors.ErrCodeChainSealed) {
		t.Errorf("expected CHAIN_SEALED, got %v", err)
	}

	head, ops, err := p.Build()
	if err != nil {
		t.Fatal(err)
	}
	if head.Kind() != KindFilter || len(ops) != 2 || head.Next() != count {
		t.Errorf("unexpected chain %v", ops)
	}
}

func TestRewritesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "flowkit", &buf)
	From(FromSlice(seq(1, 3)), WithConfig(testConfig(true)), WithLogger(log)).Skip(1).Skip(1)

	out := buf.String()
	if !strings.Contains(out, `"rule":"skip-merge"`) || !strings.Contains(out, "fusion rewrite") {
		t.Errorf("expected a rewrite log line, got %q", out)
	}
}

func TestRegisteredLoggerIsUsed(t *testing.T) {
	var buf bytes.Buffer
	logger.Register(component, logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, component, &buf))
	t.Cleanup(func() { logger.Register(component, nil) })

	From(FromSlice(seq(1, 3))).Skip(1).Skip(1)
	if !strings.Contains(buf.String(), `"rule":"skip-merge"`) {
		t.Errorf("expected the registered logger to receive the rewrite, got %q", buf.String())
	}
}

func TestRunLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "flowkit", &buf)
	err := From(FromSlice([]any{"x"}), WithConfig(testConfig(true)), WithLogger(log)).Map(ToInt()).Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	out := buf.String()
	if !strings.Contains(out, "run failed") || !strings.Contains(out, "TYPE_MISMATCH") {
		t.Errorf("expected a failure log line, got %q", out)
	}
}

func TestRunTelemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewFlowMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		t.Fatal(err)
	}
	tel := observability.NewTelemetry(tp.Tracer(observability.InstrumentationName), metrics)
	runID := "0b6a6c3e-8f2a-4c55-9d7e-3f1f0e6f4a10"

	s := From(FromSlice(seq(1, 10)), quiet(WithTelemetry(tel), WithRunID(runID))...).
		Sort(ByValue(nil)).Limit(2)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != observability.SpanRun {
		t.Fatalf("expected one run span, got %d", len(spans))
	}
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs[observability.AttrRunID] != runID {
		t.Errorf("unexpected run id %v", attrs[observability.AttrRunID])
	}
	if attrs[observability.AttrItems] != int64(10) {
		t.Errorf("expected 10 pulled items, got %v", attrs[observability.AttrItems])
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	rewrites := int64(0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == observability.MetricFusionRewrites {
				for _, dp := range sum.DataPoints {
					rewrites += dp.Value
				}
			}
		}
	}
	if rewrites != 1 {
		t.Errorf("expected one recorded rewrite, got %d", rewrites)
	}
}
