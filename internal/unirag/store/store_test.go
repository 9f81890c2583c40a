package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/pkg/llm/offline"
)

func chunk(id int64, city, category, text string, minScore, maxScore int) model.IndexedChunk {
	return model.IndexedChunk{
		ID:   fmt.Sprintf("uni_%d", id),
		Text: text,
		Metadata: model.ChunkMetadata{
			ID: id, Name: fmt.Sprintf("Университет %d", id),
			City: city, Category: category,
			EntMinScore: minScore, EntMaxScore: maxScore,
		},
	}
}

func sampleChunks() []model.IndexedChunk {
	return []model.IndexedChunk{
		chunk(1, "Алматы", "IT", "IT университет Алматы программирование информатика", 70, 120),
		chunk(2, "Астана", "Медицина", "медицинский университет Астана лечебное дело", 90, 130),
		chunk(3, "Алматы", "Экономика", "экономика финансы университет Алматы", 60, 110),
	}
}

func newIndex(t *testing.T, backend Backend, batchSize int) *Index {
	t.Helper()
	idx, err := NewIndex(offline.New(4096), backend, Config{BatchSize: batchSize, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

type failingEmbedder struct{ *offline.Provider }

func (failingEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func TestIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t, NewMemory(), 2)

	require.NoError(t, idx.Index(ctx, sampleChunks()))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	out := idx.Search(ctx, "IT университет в Алматы", 3, nil)
	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Hits, 3)
	assert.Equal(t, "uni_1", out.Hits[0].ChunkID)
	for i := 1; i < len(out.Hits); i++ {
		assert.LessOrEqual(t, out.Hits[i-1].Distance, out.Hits[i].Distance)
	}

	out = idx.Search(ctx, "университет", 1, nil)
	assert.Len(t, out.Hits, 1)
}

func TestSearchWithFilter(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t, NewMemory(), 50)
	require.NoError(t, idx.Index(ctx, sampleChunks()))

	out := idx.Search(ctx, "университет", 5, filter.Compile(&model.Filters{City: "Алматы"}))
	require.Equal(t, StatusFound, out.Status)
	assert.Len(t, out.Hits, 2)
	for _, h := range out.Hits {
		assert.Equal(t, "Алматы", h.Metadata.City)
	}

	out = idx.Search(ctx, "университет", 5, filter.Compile(&model.Filters{City: "Алматы", MinScore: 65}))
	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "uni_3", out.Hits[0].ChunkID)

	out = idx.Search(ctx, "университет", 5, filter.Compile(&model.Filters{City: "Караганда"}))
	assert.Equal(t, StatusEmpty, out.Status)
	assert.Empty(t, out.Hits)
	assert.NoError(t, out.Err)
}

func TestBatchSizeDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()
	query := "университет Алматы"

	var baseline []model.SearchHit
	for _, size := range []int{1, 2, 3, 50} {
		idx := newIndex(t, NewMemory(), size)
		require.NoError(t, idx.Index(ctx, sampleChunks()))
		out := idx.Search(ctx, query, 3, nil)
		require.Equal(t, StatusFound, out.Status)
		if baseline == nil {
			baseline = out.Hits
			continue
		}
		assert.Equal(t, baseline, out.Hits, "batch size %d", size)
	}
}

func TestRebuildReplacesCollection(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t, NewMemory(), 2)

	require.NoError(t, idx.Index(ctx, sampleChunks()))
	require.NoError(t, idx.Index(ctx, sampleChunks()[:1]))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, idx.Index(ctx, nil))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, StatusEmpty, idx.Search(ctx, "университет", 3, nil).Status)
}

func TestSearchFailure(t *testing.T) {
	ctx := context.Background()
	idx, err := NewIndex(failingEmbedder{offline.New(8)}, NewMemory(), Config{})
	require.NoError(t, err)
	defer idx.Close()

	out := idx.Search(ctx, "университет", 3, nil)
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "embedding service unavailable")

	assert.Error(t, idx.Index(ctx, sampleChunks()))
}

func TestNewIndexValidation(t *testing.T) {
	_, err := NewIndex(nil, NewMemory(), Config{})
	assert.Error(t, err)
	_, err = NewIndex(offline.New(8), nil, Config{})
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "found", StatusFound.String())
	assert.Equal(t, "empty", StatusEmpty.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(0).String())
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{0, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1}, []float32{1, 0}), 1e-9)
}
