// Package metrics provides labelled counters, gauges and histograms rendered
// in the Prometheus text exposition format.
package metrics

// MetricType represents the type of metric.
type MetricType string

// Metric type constants define the supported metric types.
const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Metric is a named family that can render itself.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	// Describe returns the family in Prometheus text format.
	Describe() string
}

// Labels maps label names to values.
type Labels map[string]string

// DefBuckets are latency buckets in seconds.
var DefBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
