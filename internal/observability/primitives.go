package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Minimal metric types rendered in the Prometheus text exposition format.
// Series are emitted sorted by label string so scrapes diff cleanly.

type family struct {
	name   string
	help   string
	kind   string
	labels []string
}

// promPrinter stops writing after the first error and remembers it.
type promPrinter struct {
	w   io.Writer
	err error
}

func (p *promPrinter) line(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
	}
}

func (f family) header(p *promPrinter) {
	p.line("# HELP %s %s", f.name, f.help)
	p.line("# TYPE %s %s", f.name, f.kind)
}

// series is a float per label set, shared by counters and gauges.
type series struct {
	family
	mu     sync.Mutex
	values map[string]float64
}

func newSeries(name, help, kind string, labels []string) *series {
	return &series{family: family{name: name, help: help, kind: kind, labels: labels}, values: make(map[string]float64)}
}

func (s *series) update(fn func(float64) float64, labelValues []string) {
	key := labelString(s.labels, labelValues)
	s.mu.Lock()
	s.values[key] = fn(s.values[key])
	s.mu.Unlock()
}

func (s *series) get(labelValues []string) float64 {
	key := labelString(s.labels, labelValues)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *series) WritePrometheus(w io.Writer) error {
	if s == nil {
		return nil
	}
	p := &promPrinter{w: w}
	s.header(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range sortedKeys(s.values) {
		p.line("%s%s %s", s.name, key, formatFloat(s.values[key]))
	}
	return p.err
}

type CounterVec struct{ *series }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newSeries(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(labelValues ...string) { c.Add(1, labelValues...) }

// Add ignores negative deltas; counters only go up.
func (c *CounterVec) Add(delta float64, labelValues ...string) {
	if c == nil || delta < 0 {
		return
	}
	c.update(func(v float64) float64 { return v + delta }, labelValues)
}

type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: NewCounterVec(name, help, nil)}
}

func (c *Counter) Inc()              { c.vec.Inc() }
func (c *Counter) Add(delta float64) { c.vec.Add(delta) }
func (c *Counter) Value() float64    { return c.vec.get(nil) }

func (c *Counter) WritePrometheus(w io.Writer) error { return c.vec.WritePrometheus(w) }

type GaugeVec struct{ *series }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newSeries(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, labelValues ...string) {
	if g != nil {
		g.update(func(float64) float64 { return v }, labelValues)
	}
}

func (g *GaugeVec) Add(delta float64, labelValues ...string) {
	if g != nil {
		g.update(func(v float64) float64 { return v + delta }, labelValues)
	}
}

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: NewGaugeVec(name, help, nil)}
}

func (g *Gauge) Set(v float64)  { g.vec.Set(v) }
func (g *Gauge) Inc()           { g.vec.Add(1) }
func (g *Gauge) Dec()           { g.vec.Add(-1) }
func (g *Gauge) Value() float64 { return g.vec.get(nil) }

func (g *Gauge) WritePrometheus(w io.Writer) error { return g.vec.WritePrometheus(w) }

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	family
	bounds []float64

	mu    sync.Mutex
	hists map[string]*histogram
}

// histogram keeps non-cumulative bucket counts; the last slot is +Inf.
type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	return &HistogramVec{
		family: family{name: name, help: help, kind: "histogram", labels: labels},
		bounds: bounds,
		hists:  make(map[string]*histogram),
	}
}

func (h *HistogramVec) Observe(v float64, labelValues ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, labelValues)
	slot := sort.SearchFloat64s(h.bounds, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.hists[key]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.bounds)+1)}
		h.hists[key] = hist
	}
	hist.counts[slot]++
	hist.sum += v
	hist.total++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	p := &promPrinter{w: w}
	h.header(p)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range sortedKeys(h.hists) {
		hist := h.hists[key]
		var cumulative uint64
		for i, bound := range h.bounds {
			cumulative += hist.counts[i]
			p.line("%s_bucket%s %d", h.name, withLe(key, formatFloat(bound)), cumulative)
		}
		p.line("%s_bucket%s %d", h.name, withLe(key, "+Inf"), hist.total)
		p.line("%s_sum%s %s", h.name, key, formatFloat(hist.sum))
		p.line("%s_count%s %d", h.name, key, hist.total)
	}
	return p.err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// labelString renders {a="x",b="y"}. Missing values render as "unknown".
func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	pairs := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		pairs[i] = name + `="` + labelEscaper.Replace(val) + `"`
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func withLe(labels, le string) string {
	pair := `le="` + labelEscaper.Replace(le) + `"`
	if labels == "" {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}

func isServerErrorStatus(status string) bool {
	code, err := strconv.Atoi(strings.TrimSpace(status))
	return err == nil && code >= 500 && code <= 599
}
