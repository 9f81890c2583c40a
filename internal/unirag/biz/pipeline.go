package biz

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/cache"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/internal/unirag/store"
	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	"github.com/kart-io/unirag/pkg/infra/tracing"
)

const tracerName = "github.com/kart-io/unirag/internal/unirag/biz"

// Version 健康检查中报告的服务版本。
const Version = "1.0.0"

const (
	// EmptyAnswer 没有匹配的大学时返回。
	EmptyAnswer = "К сожалению, по вашему запросу не найдено подходящих университетов. " +
		"Попробуйте изменить параметры поиска или уточнить вопрос."
	// ErrorAnswer 处理过程中出现故障时返回。
	ErrorAnswer = "Произошла ошибка при обработке запроса. Пожалуйста, попробуйте позже."
)

// Searcher 向量检索能力，由 store.Index 实现。
type Searcher interface {
	Search(ctx context.Context, query string, topK int, pred filter.Predicate) store.SearchOutcome
	Count(ctx context.Context) (int64, error)
	EmbeddingModel() string
}

// FilterSource 提供可用过滤选项，由 catalog.Catalog 实现。
type FilterSource interface {
	Filters() model.FilterOptions
}

// PipelineConfig 查询管道配置。
type PipelineConfig struct {
	TopK         int
	Temperature  float64
	CacheEnabled bool
	VectorStore  string
	EmbedName    string
}

// Pipeline 编排缓存、检索、组装与生成。所有处理器共享同一实例。
type Pipeline struct {
	index     Searcher
	assembler *Assembler
	generator *Generator
	cache     cache.QueryCache
	filters   FilterSource
	metrics   *metrics.RAGMetrics
	cfg       PipelineConfig
	ready     atomic.Bool
}

// NewPipeline 创建查询管道，创建后处于未就绪状态。
func NewPipeline(
	index Searcher,
	assembler *Assembler,
	generator *Generator,
	qc cache.QueryCache,
	filters FilterSource,
	m *metrics.RAGMetrics,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if qc == nil {
		qc = cache.NewNoop()
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Pipeline{
		index:     index,
		assembler: assembler,
		generator: generator,
		cache:     qc,
		filters:   filters,
		metrics:   m,
		cfg:       cfg,
	}
}

// SetReady 标记管道是否可以处理请求。
func (p *Pipeline) SetReady(ready bool) { p.ready.Store(ready) }

// Ready 报告管道是否就绪。
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Metrics 返回指标收集器。
func (p *Pipeline) Metrics() *metrics.RAGMetrics { return p.metrics }

// Process 处理一次查询。永不返回错误，内部故障以固定文本应答。
func (p *Pipeline) Process(ctx context.Context, req *model.QueryRequest) (resp *model.QueryResponse) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "unirag.Process")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			tracing.RecordError(ctx, err)
			logctx.GetLogger(ctx).Errorw("query pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			p.metrics.RecordQuery(false, false, time.Since(start), err)
			resp = fixedResponse(ErrorAnswer, start)
		}
	}()

	topK := p.cfg.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	temperature := p.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	span.SetAttributes(attribute.Int("unirag.top_k", topK))

	fp := cache.Fingerprint(req.Question, req.Filters)
	if hit := p.cacheGet(ctx, fp); hit != nil {
		hit.Cached = true
		hit.ProcessingTime = time.Since(start).Seconds()
		span.SetAttributes(attribute.Bool("unirag.cache_hit", true))
		p.metrics.RecordQuery(true, false, time.Since(start), nil)
		logctx.GetLogger(ctx).Infow("cache hit", "question", preview(req.Question))
		return hit
	}

	logctx.GetLogger(ctx).Infow("processing query", "question", preview(req.Question), "top_k", topK)

	pred := filter.Compile(req.Filters)
	outcome := p.search(ctx, req.Question, topK, pred)
	switch outcome.Status {
	case store.StatusFailed:
		// 检索故障对用户表现为无结果，错误只进入日志与指标
		p.metrics.RecordQuery(false, false, time.Since(start), outcome.Err)
		return fixedResponse(EmptyAnswer, start)
	case store.StatusEmpty:
		p.metrics.RecordQuery(false, true, time.Since(start), nil)
		return fixedResponse(EmptyAnswer, start)
	}

	contextText, sources := p.assemble(ctx, outcome.Hits)
	gen := p.generator.Generate(ctx, req.Question, contextText, temperature)

	resp = &model.QueryResponse{
		Answer:     gen.Answer,
		Sources:    sources,
		Cached:     false,
		Timestamp:  time.Now(),
		TokensUsed: gen.TokensUsed,
	}
	if gen.Err == nil {
		p.cachePut(ctx, fp, resp)
	}
	resp.ProcessingTime = time.Since(start).Seconds()
	p.metrics.RecordQuery(false, false, time.Since(start), nil)
	logctx.GetLogger(ctx).Infow("query processed", "sources", len(sources), "processing_time", resp.ProcessingTime)
	return resp
}

func (p *Pipeline) cacheGet(ctx context.Context, fp string) *model.QueryResponse {
	ctx, span := tracing.StartSpan(ctx, tracerName, "unirag.CacheGet",
		attribute.String("cache.backend", p.cache.Name()))
	defer span.End()

	hit, err := p.cache.Get(ctx, fp)
	if err != nil {
		tracing.RecordError(ctx, err)
		logctx.GetLogger(ctx).Warnw("cache lookup failed, treating as miss", "backend", p.cache.Name(), "error", err.Error())
		return nil
	}
	return hit
}

func (p *Pipeline) cachePut(ctx context.Context, fp string, resp *model.QueryResponse) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "unirag.CachePut")
	defer span.End()

	if err := p.cache.Put(ctx, fp, resp); err != nil {
		tracing.RecordError(ctx, err)
		logctx.GetLogger(ctx).Warnw("cache store failed", "backend", p.cache.Name(), "error", err.Error())
	}
}

func (p *Pipeline) search(ctx context.Context, question string, topK int, pred filter.Predicate) store.SearchOutcome {
	ctx, span := tracing.StartSpan(ctx, tracerName, "unirag.Search",
		attribute.String("unirag.filter", filter.MilvusExpr(pred)))
	defer span.End()

	start := time.Now()
	outcome := p.index.Search(ctx, question, topK, pred)
	p.metrics.RecordSearch(time.Since(start), metrics.SearchStatus(outcome.Status.String()))
	span.SetAttributes(
		attribute.String("unirag.search_status", outcome.Status.String()),
		attribute.Int("unirag.hits", len(outcome.Hits)),
	)
	tracing.RecordError(ctx, outcome.Err)
	return outcome
}

func (p *Pipeline) assemble(ctx context.Context, hits []model.SearchHit) (string, []model.SourceCitation) {
	_, span := tracing.StartSpan(ctx, tracerName, "unirag.Assemble")
	defer span.End()

	text, sources := p.assembler.Assemble(hits)
	span.SetAttributes(attribute.Int("unirag.context_runes", len([]rune(text))))
	return text, sources
}

// Health 汇总索引规模、生成服务连通性与缓存状态。
func (p *Pipeline) Health(ctx context.Context) *model.HealthStatus {
	count, err := p.index.Count(ctx)
	if err != nil {
		logger.Warnw("vector count failed", "error", err.Error())
	}

	genStatus := p.generator.CheckHealth(ctx)
	status := model.HealthHealthy
	if genStatus != "connected" {
		status = model.HealthDegraded
	}

	return &model.HealthStatus{
		Status:         status,
		VectorDBCount:  count,
		EmbeddingModel: p.index.EmbeddingModel(),
		GeminiStatus:   genStatus,
		CacheEnabled:   p.cfg.CacheEnabled,
		Version:        Version,
	}
}

// Stats 返回管道统计信息。
func (p *Pipeline) Stats(ctx context.Context) *model.Stats {
	count, err := p.index.Count(ctx)
	if err != nil {
		logger.Warnw("vector count failed", "error", err.Error())
	}
	size, err := p.cache.Len(ctx)
	if err != nil {
		logger.Warnw("cache size failed", "backend", p.cache.Name(), "error", err.Error())
	}

	return &model.Stats{
		VectorDBCount: count,
		CacheSize:     size,
		CacheEnabled:  p.cfg.CacheEnabled,
		CacheBackend:  p.cache.Name(),
		VectorStore:   p.cfg.VectorStore,
		EmbedProvider: p.cfg.EmbedName,
		ChatProvider:  p.generator.Name(),
		Metrics:       p.metrics.Stats(),
	}
}

// ClearCache 清空查询缓存。
func (p *Pipeline) ClearCache(ctx context.Context) error {
	if err := p.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	logger.Info("cache cleared")
	return nil
}

// FilterOptions 返回可用过滤选项。
func (p *Pipeline) FilterOptions() model.FilterOptions {
	if p.filters == nil {
		return model.FilterOptions{
			Cities:        []string{},
			Categories:    []string{},
			EntScoreRange: model.DefaultScoreRange,
		}
	}
	return p.filters.Filters()
}

func fixedResponse(answer string, start time.Time) *model.QueryResponse {
	return &model.QueryResponse{
		Answer:         answer,
		Sources:        []model.SourceCitation{},
		ProcessingTime: time.Since(start).Seconds(),
		Timestamp:      time.Now(),
	}
}

func preview(q string) string {
	r := []rune(q)
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return q
}
