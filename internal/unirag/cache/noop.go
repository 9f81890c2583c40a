package cache

import (
	"context"

	"github.com/kart-io/unirag/internal/model"
)

// Noop 禁用缓存时使用，从不命中。
type Noop struct{}

var _ QueryCache = Noop{}

// NewNoop 创建空缓存。
func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string) (*model.QueryResponse, error) { return nil, nil }
func (Noop) Put(context.Context, string, *model.QueryResponse) error   { return nil }
func (Noop) Clear(context.Context) error                               { return nil }
func (Noop) Len(context.Context) (int, error)                          { return 0, nil }
func (Noop) Name() string                                              { return "disabled" }
func (Noop) Close() error                                              { return nil }
