// Package llm 提供统一的 LLM 供应商抽象层。
// Embedding 与 Chat 可以使用不同供应商的模型，供应商通过 init() 注册到全局注册表。
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入，结果顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string

	// Model 返回嵌入模型标识，索引与查询必须使用同一模型。
	Model() string
}

// ChatProvider 定义文本生成供应商接口。
type ChatProvider interface {
	// Generate 单轮生成。
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name 返回供应商名称。
	Name() string
}

// GenerateRequest 单轮生成请求。
type GenerateRequest struct {
	// SystemPrompt 系统指令（人设）。
	SystemPrompt string
	// Prompt 用户提示。
	Prompt string
	// Temperature 为 nil 时使用供应商默认值。
	Temperature *float64
}

// GenerateResponse 生成结果。
type GenerateResponse struct {
	Content    string
	TokenUsage *TokenUsage
}

// TokenUsage 记录 token 消耗，供应商未返回时为 nil。
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider 同时支持 Embedding 和 Chat 的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider 注册供应商工厂，同名注册会覆盖旧值。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider 根据名称创建供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
	return factory(config)
}

// NewEmbeddingProvider 创建仅用于 Embedding 的供应商实例。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	p, err := NewProvider(name, config)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	return p, nil
}

// NewChatProvider 创建仅用于生成的供应商实例。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	p, err := NewProvider(name, config)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return p, nil
}

// ListProviders 按字母序列出已注册的供应商名称。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringOption 从配置 map 读取非空字符串。
func StringOption(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

// IntOption 从配置 map 读取正整数。
func IntOption(m map[string]any, key string, def int) int {
	if v, ok := m[key].(int); ok && v > 0 {
		return v
	}
	return def
}

// FloatOption 从配置 map 读取浮点数。
func FloatOption(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return def
}

// DurationOption 从配置 map 读取正时长。
func DurationOption(m map[string]any, key string, def time.Duration) time.Duration {
	if v, ok := m[key].(time.Duration); ok && v > 0 {
		return v
	}
	return def
}
