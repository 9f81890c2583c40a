package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/pkg/cache"
)

type memoryRow struct {
	chunk  model.IndexedChunk
	vector []float32
}

// Memory 进程内暴力余弦检索后端，按城市与类别建立二级索引。
type Memory struct {
	rows *cache.MemoryCache[string, memoryRow]
}

var _ Backend = (*Memory)(nil)

// NewMemory 创建内存后端。
func NewMemory() *Memory {
	rows := cache.NewMemoryCache[string, memoryRow]()
	rows.AddIndex(filter.FieldCity, func(r memoryRow) any { return r.chunk.Metadata.City })
	rows.AddIndex(filter.FieldCategory, func(r memoryRow) any { return r.chunk.Metadata.Category })
	return &Memory{rows: rows}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Ensure(context.Context) error { return nil }

func (m *Memory) Reset(context.Context) error {
	m.rows.Clear()
	return nil
}

func (m *Memory) Insert(_ context.Context, chunks []model.IndexedChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("memory insert: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, c := range chunks {
		m.rows.Set(c.ID, memoryRow{chunk: c, vector: vectors[i]})
	}
	return nil
}

func (m *Memory) Search(ctx context.Context, vector []float32, topK int, pred filter.Predicate) ([]model.SearchHit, error) {
	candidates, err := m.candidates(pred)
	if err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(candidates))
	for _, r := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pred != nil && !pred.Match(r.chunk.Metadata) {
			continue
		}
		hits = append(hits, model.SearchHit{
			ChunkID:  r.chunk.ID,
			Text:     r.chunk.Text,
			Metadata: r.chunk.Metadata,
			Distance: cosineDistance(vector, r.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// candidates 用等值条件缩小扫描范围，其余条件由 Match 处理。
func (m *Memory) candidates(pred filter.Predicate) ([]memoryRow, error) {
	constraints := make(map[string]any)
	for _, leaf := range filter.Leaves(pred) {
		switch t := leaf.(type) {
		case filter.CityEquals:
			constraints[filter.FieldCity] = t.City
		case filter.CategoryEquals:
			constraints[filter.FieldCategory] = t.Category
		}
	}
	return m.rows.FindAll(constraints)
}

func (m *Memory) Count(context.Context) (int64, error) {
	return int64(m.rows.Len()), nil
}

func (m *Memory) Close() error { return nil }

// cosineDistance 返回 1 - cos(a, b)，范围 [0, 2]。零向量视为正交。
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	return math.Max(0, math.Min(2, d))
}
