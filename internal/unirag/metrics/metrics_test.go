package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRecordQuery(t *testing.T) {
	m := New()

	m.RecordQuery(true, false, 10*time.Millisecond, nil)
	m.RecordQuery(false, false, 10*time.Millisecond, nil)
	m.RecordQuery(false, true, 10*time.Millisecond, nil)
	m.RecordQuery(false, false, 10*time.Millisecond, assert.AnError)

	assert.Equal(t, uint64(4), m.queriesTotal.Load())
	assert.Equal(t, uint64(1), m.queriesCacheHits.Load())
	assert.Equal(t, uint64(2), m.queriesCacheMisses.Load())
	assert.Equal(t, uint64(1), m.queriesEmpty.Load())
	assert.Equal(t, uint64(1), m.queriesErrors.Load())

	queries := m.Stats()["queries"].(map[string]any)
	assert.InDelta(t, 1.0/3.0, queries["cache_hit_rate"], 0.001)
	assert.InDelta(t, 0.01, queries["avg_duration_secs"], 0.001)
}

func TestRecordSearchAndLLM(t *testing.T) {
	m := New()

	m.RecordSearch(100*time.Millisecond, SearchFound)
	m.RecordSearch(50*time.Millisecond, SearchFailed)
	m.RecordLLMCall(500*time.Millisecond, 120, nil)
	m.RecordLLMCall(100*time.Millisecond, 0, assert.AnError)

	stats := m.Stats()
	search := stats["search"].(map[string]any)
	assert.Equal(t, uint64(2), search["total"])
	assert.Equal(t, uint64(1), search["failed"])
	assert.InDelta(t, 0.075, search["avg_duration_secs"], 0.001)

	llm := stats["llm"].(map[string]any)
	assert.Equal(t, uint64(2), llm["calls_total"])
	assert.Equal(t, uint64(1), llm["errors"])
	assert.Equal(t, uint64(120), llm["tokens"])
}

func TestRecordIndex(t *testing.T) {
	m := New()
	m.RecordIndex(3, time.Second, nil)
	m.RecordIndex(0, 0, assert.AnError)

	idx := m.Stats()["indexing"].(map[string]any)
	assert.Equal(t, uint64(2), idx["runs"])
	assert.Equal(t, uint64(3), idx["chunks_indexed"])
	assert.Equal(t, uint64(1), idx["errors"])
	assert.InDelta(t, 1.0, idx["last_duration_secs"], 0.001)
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordQuery(true, false, time.Millisecond, nil)

	out := m.Export("unirag")
	assert.Contains(t, out, "# TYPE unirag_queries_total counter")
	assert.Contains(t, out, "unirag_queries_total 1\n")
	assert.Contains(t, out, "unirag_queries_cache_hits_total 1\n")
	assert.Contains(t, out, "unirag_uptime_seconds")
}

func TestResetAndConcurrency(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(false, false, time.Millisecond, nil)
			m.RecordSearch(time.Millisecond, SearchEmpty)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), m.queriesTotal.Load())

	m.Reset()
	assert.Equal(t, uint64(0), m.queriesTotal.Load())
	assert.Equal(t, uint64(0), m.searchTotal.Load())
}
