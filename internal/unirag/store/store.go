package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/pkg/infra/pool"
	"github.com/kart-io/unirag/pkg/llm"
)

// Backend 向量存储后端。距离统一为余弦距离，越小越相似。
type Backend interface {
	// Name 返回后端名称。
	Name() string
	// Ensure 在集合不存在时创建空集合。
	Ensure(ctx context.Context) error
	// Reset 删除并重建空集合。
	Reset(ctx context.Context) error
	// Insert 写入一批分块，vectors 与 chunks 一一对应。
	Insert(ctx context.Context, chunks []model.IndexedChunk, vectors [][]float32) error
	// Search 返回最多 topK 个按距离升序排列的命中，pred 为 nil 时不过滤。
	Search(ctx context.Context, vector []float32, topK int, pred filter.Predicate) ([]model.SearchHit, error)
	// Count 返回集合行数，集合不存在时为 0。
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Status 检索结果状态。
type Status int

const (
	StatusFound Status = iota + 1
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SearchOutcome 检索结果。Failed 时 Err 非空，Empty 时 Hits 为空。
type SearchOutcome struct {
	Status Status
	Hits   []model.SearchHit
	Err    error
}

// Config 索引配置。
type Config struct {
	BatchSize     int
	Workers       int
	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
}

func (c *Config) complete() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 10 * time.Second
	}
}

// Index 向量索引适配器。重建持有写锁，检索与计数持有读锁。
type Index struct {
	mu       sync.RWMutex
	embedder llm.EmbeddingProvider
	backend  Backend
	cfg      Config
	pool     *pool.Pool
}

// NewIndex 创建索引适配器。
func NewIndex(embedder llm.EmbeddingProvider, backend Backend, cfg Config) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("store: embedder is nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("store: backend is nil")
	}
	cfg.complete()

	p, err := pool.NewPool("unirag-embed", pool.DefaultConfig(cfg.Workers))
	if err != nil {
		return nil, fmt.Errorf("store: create embed pool: %w", err)
	}

	return &Index{
		embedder: embedder,
		backend:  backend,
		cfg:      cfg,
		pool:     p,
	}, nil
}

// EmbeddingModel 返回嵌入模型标识。
func (x *Index) EmbeddingModel() string { return x.embedder.Model() }

// BackendName 返回后端名称。
func (x *Index) BackendName() string { return x.backend.Name() }

// Index 全量重建索引。批次并发嵌入、按原始顺序写入，批大小不影响结果。
func (x *Index) Index(ctx context.Context, chunks []model.IndexedChunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	start := time.Now()
	if err := x.withSearchTimeout(ctx, x.backend.Ensure); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	var count int64
	err := x.withSearchTimeout(ctx, func(ctx context.Context) error {
		var err error
		count, err = x.backend.Count(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("count collection: %w", err)
	}
	if count > 0 {
		logger.Infow("resetting non-empty collection", "backend", x.backend.Name(), "rows", count)
		if err := x.withSearchTimeout(ctx, x.backend.Reset); err != nil {
			return fmt.Errorf("reset collection: %w", err)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	batches := split(chunks, x.cfg.BatchSize)
	vectors := make([][][]float32, len(batches))

	err = x.pool.Run(ctx, len(batches), func(ctx context.Context, i int) error {
		texts := make([]string, len(batches[i]))
		for j, c := range batches[i] {
			texts[j] = c.Text
		}

		embedCtx, cancel := context.WithTimeout(ctx, x.cfg.EmbedTimeout)
		defer cancel()
		vecs, err := x.embedder.Embed(embedCtx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d: %w", i, err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embed batch %d: got %d vectors for %d texts", i, len(vecs), len(texts))
		}
		vectors[i] = vecs
		return nil
	})
	if err != nil {
		return err
	}

	for i, batch := range batches {
		err := x.withSearchTimeout(ctx, func(ctx context.Context) error {
			return x.backend.Insert(ctx, batch, vectors[i])
		})
		if err != nil {
			return fmt.Errorf("insert batch %d: %w", i, err)
		}
	}

	logger.Infow("index rebuilt",
		"backend", x.backend.Name(),
		"chunks", len(chunks),
		"batches", len(batches),
		"duration", time.Since(start).String(),
	)
	return nil
}

// Search 嵌入查询并检索最相似的分块。
func (x *Index) Search(ctx context.Context, query string, topK int, pred filter.Predicate) SearchOutcome {
	x.mu.RLock()
	defer x.mu.RUnlock()

	embedCtx, cancel := context.WithTimeout(ctx, x.cfg.EmbedTimeout)
	vector, err := x.embedder.EmbedSingle(embedCtx, query)
	cancel()
	if err != nil {
		logger.Errorw("query embedding failed", "provider", x.embedder.Name(), "error", err.Error())
		return SearchOutcome{Status: StatusFailed, Err: fmt.Errorf("embed query: %w", err)}
	}

	var hits []model.SearchHit
	err = x.withSearchTimeout(ctx, func(ctx context.Context) error {
		var err error
		hits, err = x.backend.Search(ctx, vector, topK, pred)
		return err
	})
	if err != nil {
		logger.Errorw("vector search failed", "backend", x.backend.Name(), "error", err.Error())
		return SearchOutcome{Status: StatusFailed, Err: fmt.Errorf("search: %w", err)}
	}
	if len(hits) == 0 {
		return SearchOutcome{Status: StatusEmpty}
	}
	return SearchOutcome{Status: StatusFound, Hits: hits}
}

// Count 返回已索引的分块数。
func (x *Index) Count(ctx context.Context) (int64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var n int64
	err := x.withSearchTimeout(ctx, func(ctx context.Context) error {
		var err error
		n, err = x.backend.Count(ctx)
		return err
	})
	return n, err
}

// Close 释放工作池并关闭后端。
func (x *Index) Close() error {
	x.pool.Release()
	return x.backend.Close()
}

func (x *Index) withSearchTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, x.cfg.SearchTimeout)
	defer cancel()
	return fn(ctx)
}

func split(chunks []model.IndexedChunk, size int) [][]model.IndexedChunk {
	batches := make([][]model.IndexedChunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, chunks[start:end])
	}
	return batches
}
