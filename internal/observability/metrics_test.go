package observability

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/me", "200", time.Millisecond)
	m.IncInteraction("content", "like", "added")
	m.SSEClientConnected()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	if Init(nil, false) != nil {
		t.Fatalf("disabled metrics should be nil")
	}
}

func TestCounterVecOutputIsSorted(t *testing.T) {
	c := NewCounterVec("cz_test_total", "test", []string{"kind"})
	c.Inc("like")
	c.Inc("dislike")
	c.Add(2, "like")

	var buf bytes.Buffer
	if err := c.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	dislike := strings.Index(out, `cz_test_total{kind="dislike"} 1`)
	like := strings.Index(out, `cz_test_total{kind="like"} 3`)
	if dislike < 0 || like < 0 {
		t.Fatalf("missing series in output:\n%s", out)
	}
	if dislike > like {
		t.Fatalf("series not sorted:\n%s", out)
	}
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogramVec("cz_latency_seconds", "test", []string{"route"}, []float64{0.1, 1})
	h.Observe(0.05, "/x")
	h.Observe(0.5, "/x")

	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, want := range []string{
		`cz_latency_seconds_bucket{route="/x",le="0.1"} 1`,
		`cz_latency_seconds_bucket{route="/x",le="1"} 2`,
		`cz_latency_seconds_bucket{route="/x",le="+Inf"} 2`,
		`cz_latency_seconds_count{route="/x"} 2`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"path"}, []string{`a"b`})
	if got != `{path="a\"b"}` {
		t.Fatalf("unexpected label string %q", got)
	}
}

func TestPoolStatsAndCollectors(t *testing.T) {
	m := newMetrics()
	m.recordPool(sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2})

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	m.StartSSECollector(ctx, func() uint64 { calls.Add(1); return 7 }, 5*time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, want := range []string{
		`cz_db_pool{stat="open_connections"} 3`,
		`cz_db_pool{stat="idle"} 2`,
		`cz_sse_dropped_messages 7`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestScalarsAndStatusClass(t *testing.T) {
	c := NewCounter("cz_c", "c")
	c.Add(2)
	c.Add(-5)
	c.Inc()
	if c.Value() != 3 {
		t.Fatalf("counter should ignore negative deltas, got %v", c.Value())
	}
	g := NewGauge("cz_g", "g")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("unexpected gauge %v", g.Value())
	}
	for status, want := range map[string]bool{"500": true, "503": true, "404": false, "5": false, "abc": false} {
		if got := isServerErrorStatus(status); got != want {
			t.Fatalf("isServerErrorStatus(%q)=%v want %v", status, got, want)
		}
	}
}
