package metrics

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// atomicFloat 以 uint64 位存储 float64。
type atomicFloat struct{ bits atomic.Uint64 }

func (f *atomicFloat) add(v float64) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+v)) {
			return
		}
	}
}

func (f *atomicFloat) set(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat) get() float64  { return math.Float64frombits(f.bits.Load()) }

// family 保存一组按标签区分的子序列。
type family[T any] struct {
	name     string
	help     string
	typ      MetricType
	newChild func() *T

	mu       sync.RWMutex
	children map[string]*T
}

func newFamily[T any](name, help string, typ MetricType, newChild func() *T) *family[T] {
	return &family[T]{
		name:     name,
		help:     help,
		typ:      typ,
		newChild: newChild,
		children: make(map[string]*T),
	}
}

func (f *family[T]) Name() string     { return f.name }
func (f *family[T]) Help() string     { return f.help }
func (f *family[T]) Type() MetricType { return f.typ }

func (f *family[T]) with(labels Labels) *T {
	key := formatLabels(labels)

	f.mu.RLock()
	child, ok := f.children[key]
	f.mu.RUnlock()
	if ok {
		return child
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if child, ok = f.children[key]; !ok {
		child = f.newChild()
		f.children[key] = child
	}
	return child
}

// each 按标签字符串排序遍历子序列。
func (f *family[T]) each(fn func(labels string, child *T)) {
	f.mu.RLock()
	keys := make([]string, 0, len(f.children))
	for k := range f.children {
		keys = append(keys, k)
	}
	children := make([]*T, 0, len(keys))
	sort.Strings(keys)
	for _, k := range keys {
		children = append(children, f.children[k])
	}
	f.mu.RUnlock()

	for i, k := range keys {
		fn(k, children[i])
	}
}

func (f *family[T]) header(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", f.name, f.help)
	fmt.Fprintf(sb, "# TYPE %s %s\n", f.name, f.typ)
}

// formatLabels renders labels sorted by name, e.g. {method="GET",status="200"}.
func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, k := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// withLabel 在已格式化的标签串前追加一个标签。
func withLabel(labels, name, value string) string {
	pair := fmt.Sprintf("%s=%q", name, value)
	if labels == "" {
		return "{" + pair + "}"
	}
	return "{" + pair + "," + labels[1:]
}

// --- Counter ---

// Counter is a monotonically increasing value.
type Counter struct{ v atomicFloat }

// Inc adds one.
func (c *Counter) Inc() { c.v.add(1) }

// Add adds v; negative values are ignored.
func (c *Counter) Add(v float64) {
	if v > 0 {
		c.v.add(v)
	}
}

// Get returns the current value.
func (c *Counter) Get() float64 { return c.v.get() }

// CounterVec is a counter family partitioned by labels.
type CounterVec struct{ *family[Counter] }

// NewCounterVec creates a counter family.
func NewCounterVec(name, help string) *CounterVec {
	return &CounterVec{newFamily(name, help, TypeCounter, func() *Counter { return &Counter{} })}
}

// With returns the counter for labels, creating it on first use.
func (v *CounterVec) With(labels Labels) *Counter { return v.with(labels) }

// Describe implements Metric.
func (v *CounterVec) Describe() string {
	var sb strings.Builder
	v.header(&sb)
	v.each(func(labels string, c *Counter) {
		fmt.Fprintf(&sb, "%s%s %g\n", v.name, labels, c.Get())
	})
	return sb.String()
}

// --- Gauge ---

// Gauge is a value that can go up and down.
type Gauge struct{ v atomicFloat }

func (g *Gauge) Set(v float64) { g.v.set(v) }
func (g *Gauge) Add(v float64) { g.v.add(v) }
func (g *Gauge) Inc()          { g.v.add(1) }
func (g *Gauge) Dec()          { g.v.add(-1) }
func (g *Gauge) Get() float64  { return g.v.get() }

// GaugeVec is a gauge family partitioned by labels.
type GaugeVec struct{ *family[Gauge] }

// NewGaugeVec creates a gauge family.
func NewGaugeVec(name, help string) *GaugeVec {
	return &GaugeVec{newFamily(name, help, TypeGauge, func() *Gauge { return &Gauge{} })}
}

// With returns the gauge for labels, creating it on first use.
func (v *GaugeVec) With(labels Labels) *Gauge { return v.with(labels) }

// Describe implements Metric.
func (v *GaugeVec) Describe() string {
	var sb strings.Builder
	v.header(&sb)
	v.each(func(labels string, g *Gauge) {
		fmt.Fprintf(&sb, "%s%s %g\n", v.name, labels, g.Get())
	})
	return sb.String()
}

// --- Histogram ---

// Histogram counts observations in cumulative buckets.
type Histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	count   uint64
	sum     float64
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, b := range h.buckets {
		if v <= b {
			h.counts[i]++
		}
	}
}

func (h *Histogram) snapshot() (counts []uint64, count uint64, sum float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.counts), h.count, h.sum
}

// HistogramVec is a histogram family partitioned by labels.
type HistogramVec struct {
	*family[Histogram]
	buckets []float64
}

// NewHistogramVec creates a histogram family. Nil buckets use DefBuckets.
func NewHistogramVec(name, help string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = DefBuckets
	}
	buckets = slices.Clone(buckets)
	sort.Float64s(buckets)

	return &HistogramVec{
		family: newFamily(name, help, TypeHistogram, func() *Histogram {
			return &Histogram{buckets: buckets, counts: make([]uint64, len(buckets))}
		}),
		buckets: buckets,
	}
}

// With returns the histogram for labels, creating it on first use.
func (v *HistogramVec) With(labels Labels) *Histogram { return v.with(labels) }

// Describe implements Metric.
func (v *HistogramVec) Describe() string {
	var sb strings.Builder
	v.header(&sb)
	v.each(func(labels string, h *Histogram) {
		counts, count, sum := h.snapshot()
		for i, b := range v.buckets {
			fmt.Fprintf(&sb, "%s_bucket%s %d\n", v.name, withLabel(labels, "le", fmt.Sprintf("%g", b)), counts[i])
		}
		fmt.Fprintf(&sb, "%s_bucket%s %d\n", v.name, withLabel(labels, "le", "+Inf"), count)
		fmt.Fprintf(&sb, "%s_sum%s %g\n", v.name, labels, sum)
		fmt.Fprintf(&sb, "%s_count%s %d\n", v.name, labels, count)
	})
	return sb.String()
}
