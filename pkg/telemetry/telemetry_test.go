package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.EffectRan(nil, time.Millisecond)
	m.EffectRan(nil, 2*time.Millisecond)
	m.EffectFailed(nil)
	m.BatchFlushed(2, 1)

	if got := counterValue(t, m.effectsTotal); got != 2 {
		t.Errorf("effects_total = %v, want 2", got)
	}
	if got := histogramCount(t, m.effectDuration); got != 2 {
		t.Errorf("effect_duration samples = %d, want 2", got)
	}
	if got := counterValue(t, m.effectPanics); got != 1 {
		t.Errorf("effect_panics_total = %v, want 1", got)
	}
	if got := counterValue(t, m.flushesTotal); got != 1 {
		t.Errorf("flushes_total = %v, want 1", got)
	}
}

func TestRecordPatches(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.RecordPatches([]vdom.Patch{
		{Op: vdom.OpCreate, Node: vdom.Div()},
		{Op: vdom.OpUpdate, Children: []vdom.Patch{
			{Op: vdom.OpText, Text: "x"},
			{Op: vdom.OpReorder, Moves: []vdom.Move{{From: 0, To: 1}, {From: 1, To: 0}}},
		}},
	})

	tests := []struct {
		op   vdom.Op
		want float64
	}{
		{vdom.OpCreate, 1},
		{vdom.OpUpdate, 1},
		{vdom.OpText, 1},
		{vdom.OpMove, 2},
		{vdom.OpRemove, 0},
	}
	for _, tt := range tests {
		got := counterValue(t, m.patchesTotal.WithLabelValues(tt.op.String()))
		if got != tt.want {
			t.Errorf("patches_total{op=%s} = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestObserveApplyAndErrors(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.ObserveDiff(time.Millisecond)
	m.ObserveApply(time.Millisecond, 12)
	if got := gaugeValue(t, m.liveNodes); got != 12 {
		t.Errorf("live_nodes = %v, want 12", got)
	}
	if got := histogramCount(t, m.applyDuration); got != 1 {
		t.Errorf("apply_duration samples = %d", got)
	}

	m.RecordError(nil)
	m.RecordError(rerrors.New(rerrors.CodeStaleNode))
	m.RecordError(errors.New("plain"))
	if got := counterValue(t, m.applyErrors.WithLabelValues(rerrors.CodeStaleNode)); got != 1 {
		t.Errorf("apply_errors_total{code=%s} = %v", rerrors.CodeStaleNode, got)
	}
	if got := counterValue(t, m.applyErrors.WithLabelValues("unknown")); got != 1 {
		t.Errorf("apply_errors_total{code=unknown} = %v", got)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))
	defer func() {
		if recover() == nil {
			t.Error("second NewMetrics on the same registry did not panic")
		}
	}()
	NewMetrics(WithRegistry(reg))
}

func TestPatchAttributes(t *testing.T) {
	attrs := PatchAttributes([]vdom.Patch{
		{Op: vdom.OpCreate},
		{Op: vdom.OpCreate},
		{Op: vdom.OpRemove},
	})
	got := make(map[attribute.Key]int64)
	for _, kv := range attrs {
		got[kv.Key] = kv.Value.AsInt64()
	}
	if got[AttrPatches] != 3 || got["reconcile.patches.Create"] != 2 || got["reconcile.patches.Remove"] != 1 {
		t.Errorf("attributes = %v", got)
	}
}

func TestStartSpanWithoutTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), nil, "diff", AttrRoot.String("r1"))
	if ctx == nil || span == nil {
		t.Fatal("StartSpan returned nil")
	}
	EndSpan(span, errors.New("boom"))
}
