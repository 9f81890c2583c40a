package metrics

import (
	"sort"
	"strings"
	"sync"
)

// Registry manages a collection of metric families.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// DefaultRegistry is the default global registry.
var DefaultRegistry = NewRegistry()

// Register adds m, replacing a family with the same name.
func (r *Registry) Register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[m.Name()] = m
}

// Unregister removes a family.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.metrics, name)
}

// Export returns all families sorted by name in Prometheus text format.
func (r *Registry) Export() string {
	r.mu.RLock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	families := make([]Metric, 0, len(names))
	for _, name := range names {
		families = append(families, r.metrics[name])
	}
	r.mu.RUnlock()

	var sb strings.Builder
	for _, m := range families {
		sb.WriteString(m.Describe())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Register adds m to the default registry.
func Register(m Metric) {
	DefaultRegistry.Register(m)
}

// Export renders the default registry.
func Export() string {
	return DefaultRegistry.Export()
}
