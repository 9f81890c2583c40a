package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterVec(t *testing.T) {
	v := NewCounterVec("http_requests_total", "Requests.")
	v.With(Labels{"method": "GET", "status": "200"}).Inc()
	v.With(Labels{"status": "200", "method": "GET"}).Add(2)
	v.With(Labels{"method": "POST", "status": "400"}).Add(-1)

	assert.Equal(t, float64(3), v.With(Labels{"method": "GET", "status": "200"}).Get())
	assert.Equal(t, TypeCounter, v.Type())

	out := v.Describe()
	assert.Contains(t, out, "# TYPE http_requests_total counter")
	assert.Contains(t, out, `http_requests_total{method="GET",status="200"} 3`)
	assert.Contains(t, out, `http_requests_total{method="POST",status="400"} 0`)
}

func TestGaugeVec(t *testing.T) {
	v := NewGaugeVec("in_flight", "In flight.")
	g := v.With(nil)
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, float64(1), g.Get())
	g.Set(7)
	assert.Contains(t, v.Describe(), "in_flight 7\n")
}

func TestHistogramVec(t *testing.T) {
	v := NewHistogramVec("latency_seconds", "Latency.", []float64{1, 0.1})
	h := v.With(Labels{"route": "/query"})
	h.Observe(0.0625)
	h.Observe(0.5)
	h.Observe(3)

	out := v.Describe()
	assert.Contains(t, out, `latency_seconds_bucket{le="0.1",route="/query"} 1`)
	assert.Contains(t, out, `latency_seconds_bucket{le="1",route="/query"} 2`)
	assert.Contains(t, out, `latency_seconds_bucket{le="+Inf",route="/query"} 3`)
	assert.Contains(t, out, `latency_seconds_sum{route="/query"} 3.5625`)
	assert.Contains(t, out, `latency_seconds_count{route="/query"} 3`)
}

func TestRegistryExportSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCounterVec("b_total", "B."))
	r.Register(NewCounterVec("a_total", "A."))

	out := r.Export()
	assert.Less(t, strings.Index(out, "a_total"), strings.Index(out, "b_total"))

	r.Unregister("a_total")
	assert.NotContains(t, r.Export(), "a_total")
}

func TestConcurrentUpdates(t *testing.T) {
	v := NewCounterVec("c_total", "C.")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.With(Labels{"k": "v"}).Inc()
		}()
	}
	wg.Wait()
	assert.Equal(t, float64(50), v.With(Labels{"k": "v"}).Get())
}
