package cache

import (
	"context"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/pkg/cache"
)

// Memory 进程内缓存，无容量上限，仅 Clear 时清空。
type Memory struct {
	store *cache.MemoryCache[string, *model.QueryResponse]
}

var _ QueryCache = (*Memory)(nil)

// NewMemory 创建进程内缓存。
func NewMemory() *Memory {
	return &Memory{store: cache.NewMemoryCache[string, *model.QueryResponse]()}
}

func (m *Memory) Get(_ context.Context, fp string) (*model.QueryResponse, error) {
	resp, ok := m.store.Get(fp)
	if !ok {
		return nil, nil
	}
	return resp.Clone(), nil
}

func (m *Memory) Put(_ context.Context, fp string, resp *model.QueryResponse) error {
	m.store.Set(fp, resp.Clone())
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.store.Clear()
	return nil
}

func (m *Memory) Len(context.Context) (int, error) {
	return m.store.Len(), nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error { return nil }
