// Package metrics 提供 unirag 查询管道的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SearchStatus 检索结果状态标签。
type SearchStatus string

const (
	SearchFound  SearchStatus = "found"
	SearchEmpty  SearchStatus = "empty"
	SearchFailed SearchStatus = "failed"
)

// RAGMetrics 查询管道业务指标。
type RAGMetrics struct {
	// 查询指标
	queriesTotal       atomic.Uint64
	queriesCacheHits   atomic.Uint64
	queriesCacheMisses atomic.Uint64
	queriesEmpty       atomic.Uint64
	queriesErrors      atomic.Uint64
	queryDuration      atomic.Int64 // 纳秒

	// 检索指标
	searchTotal    atomic.Uint64
	searchFailed   atomic.Uint64
	searchDuration atomic.Int64

	// LLM 调用指标
	llmCallsTotal    atomic.Uint64
	llmCallsErrors   atomic.Uint64
	llmCallsDuration atomic.Int64
	llmTokens        atomic.Uint64

	// 索引指标
	indexRuns      atomic.Uint64
	chunksIndexed  atomic.Uint64
	indexErrors    atomic.Uint64
	lastIndexNanos atomic.Int64

	mu        sync.RWMutex
	startTime time.Time
}

var (
	defaultMetrics *RAGMetrics
	defaultOnce    sync.Once
)

// New 创建独立的指标实例。
func New() *RAGMetrics {
	return &RAGMetrics{startTime: time.Now()}
}

// Default 返回进程级指标实例。
func Default() *RAGMetrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// RecordQuery 记录一次完整查询。
func (m *RAGMetrics) RecordQuery(cacheHit, empty bool, duration time.Duration, err error) {
	m.queriesTotal.Add(1)
	m.queryDuration.Add(int64(duration))
	switch {
	case err != nil:
		m.queriesErrors.Add(1)
	case cacheHit:
		m.queriesCacheHits.Add(1)
	default:
		m.queriesCacheMisses.Add(1)
		if empty {
			m.queriesEmpty.Add(1)
		}
	}
}

// RecordSearch 记录一次向量检索。
func (m *RAGMetrics) RecordSearch(duration time.Duration, status SearchStatus) {
	m.searchTotal.Add(1)
	m.searchDuration.Add(int64(duration))
	if status == SearchFailed {
		m.searchFailed.Add(1)
	}
}

// RecordLLMCall 记录 LLM 调用，失败时也计入耗时。
func (m *RAGMetrics) RecordLLMCall(duration time.Duration, tokens int, err error) {
	m.llmCallsTotal.Add(1)
	m.llmCallsDuration.Add(int64(duration))
	if err != nil {
		m.llmCallsErrors.Add(1)
		return
	}
	if tokens > 0 {
		m.llmTokens.Add(uint64(tokens))
	}
}

// RecordIndex 记录一次索引重建。
func (m *RAGMetrics) RecordIndex(chunks int, duration time.Duration, err error) {
	m.indexRuns.Add(1)
	if err != nil {
		m.indexErrors.Add(1)
		return
	}
	m.chunksIndexed.Add(uint64(chunks))
	m.lastIndexNanos.Store(int64(duration))
}

func avgSeconds(total int64, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return time.Duration(total).Seconds() / float64(n)
}

func (m *RAGMetrics) uptime() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime).Seconds()
}

// Stats 返回当前统计信息（用于 /stats）。
func (m *RAGMetrics) Stats() map[string]any {
	hits := m.queriesCacheHits.Load()
	misses := m.queriesCacheMisses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	queries := m.queriesTotal.Load()
	searches := m.searchTotal.Load()
	llmCalls := m.llmCallsTotal.Load()

	return map[string]any{
		"queries": map[string]any{
			"total":             queries,
			"cache_hits":        hits,
			"cache_misses":      misses,
			"cache_hit_rate":    hitRate,
			"empty":             m.queriesEmpty.Load(),
			"errors":            m.queriesErrors.Load(),
			"avg_duration_secs": avgSeconds(m.queryDuration.Load(), queries),
		},
		"search": map[string]any{
			"total":             searches,
			"failed":            m.searchFailed.Load(),
			"avg_duration_secs": avgSeconds(m.searchDuration.Load(), searches),
		},
		"llm": map[string]any{
			"calls_total":       llmCalls,
			"errors":            m.llmCallsErrors.Load(),
			"tokens":            m.llmTokens.Load(),
			"avg_duration_secs": avgSeconds(m.llmCallsDuration.Load(), llmCalls),
		},
		"indexing": map[string]any{
			"runs":               m.indexRuns.Load(),
			"chunks_indexed":     m.chunksIndexed.Load(),
			"errors":             m.indexErrors.Load(),
			"last_duration_secs": time.Duration(m.lastIndexNanos.Load()).Seconds(),
		},
		"uptime_seconds": m.uptime(),
	}
}

// Export 以 Prometheus 文本格式导出指标。
func (m *RAGMetrics) Export(prefix string) string {
	var sb strings.Builder

	counter := func(name, help string, v uint64) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s counter\n", prefix, name)
		fmt.Fprintf(&sb, "%s_%s %d\n\n", prefix, name, v)
	}
	seconds := func(name, help string, nanos int64) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s counter\n", prefix, name)
		fmt.Fprintf(&sb, "%s_%s %.6f\n\n", prefix, name, time.Duration(nanos).Seconds())
	}

	counter("queries_total", "Total number of queries.", m.queriesTotal.Load())
	counter("queries_cache_hits_total", "Number of cache hits.", m.queriesCacheHits.Load())
	counter("queries_cache_misses_total", "Number of cache misses.", m.queriesCacheMisses.Load())
	counter("queries_empty_total", "Number of queries without matching universities.", m.queriesEmpty.Load())
	counter("queries_errors_total", "Number of failed queries.", m.queriesErrors.Load())
	seconds("queries_duration_seconds_total", "Total query duration.", m.queryDuration.Load())

	counter("search_total", "Total number of vector searches.", m.searchTotal.Load())
	counter("search_failed_total", "Number of failed vector searches.", m.searchFailed.Load())
	seconds("search_duration_seconds_total", "Total vector search duration.", m.searchDuration.Load())

	counter("llm_calls_total", "Total number of LLM calls.", m.llmCallsTotal.Load())
	counter("llm_calls_errors_total", "Number of LLM call errors.", m.llmCallsErrors.Load())
	counter("llm_tokens_total", "Total tokens reported by the LLM.", m.llmTokens.Load())
	seconds("llm_calls_duration_seconds_total", "Total LLM call duration.", m.llmCallsDuration.Load())

	counter("index_runs_total", "Number of index rebuilds.", m.indexRuns.Load())
	counter("chunks_indexed_total", "Total chunks indexed.", m.chunksIndexed.Load())
	counter("index_errors_total", "Number of failed index rebuilds.", m.indexErrors.Load())

	fmt.Fprintf(&sb, "# HELP %s_uptime_seconds Service uptime in seconds.\n", prefix)
	fmt.Fprintf(&sb, "# TYPE %s_uptime_seconds gauge\n", prefix)
	fmt.Fprintf(&sb, "%s_uptime_seconds %.2f\n", prefix, m.uptime())

	return sb.String()
}

// Reset 重置所有指标（仅用于测试）。
func (m *RAGMetrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.queriesTotal, &m.queriesCacheHits, &m.queriesCacheMisses, &m.queriesEmpty, &m.queriesErrors,
		&m.searchTotal, &m.searchFailed,
		&m.llmCallsTotal, &m.llmCallsErrors, &m.llmTokens,
		&m.indexRuns, &m.chunksIndexed, &m.indexErrors,
	} {
		c.Store(0)
	}
	for _, d := range []*atomic.Int64{&m.queryDuration, &m.searchDuration, &m.llmCallsDuration, &m.lastIndexNanos} {
		d.Store(0)
	}

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
