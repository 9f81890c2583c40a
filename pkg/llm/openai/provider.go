// Package openai 提供 OpenAI 及兼容 API（Azure OpenAI、LocalAI 等）的供应商实现。
//
//	import _ "github.com/kart-io/unirag/pkg/llm/openai"
//
//	provider, err := llm.NewProvider("openai", map[string]any{
//	    "api_key":    "your-api-key",
//	    "chat_model": "gpt-4o-mini",
//	})
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

// ProviderName 是 OpenAI 供应商的名称标识符
const ProviderName = "openai"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址，可设置为兼容服务地址。
	BaseURL string
	// APIKey API 密钥。
	APIKey string
	// Organization 组织 ID（可选）。
	Organization string
	EmbedModel   string
	ChatModel    string
	Timeout      time.Duration
	MaxRetries   int
	Temperature  float64
	TopP         float64
	MaxTokens    int
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		EmbedModel:  "text-embedding-3-small",
		ChatModel:   "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxRetries:  2,
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   2048,
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建 OpenAI 供应商。
func NewProvider(m map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(llm.StringOption(m, "base_url", cfg.BaseURL), "/")
	cfg.APIKey = llm.StringOption(m, "api_key", cfg.APIKey)
	cfg.Organization = llm.StringOption(m, "organization", cfg.Organization)
	cfg.EmbedModel = llm.StringOption(m, "embed_model", cfg.EmbedModel)
	cfg.ChatModel = llm.StringOption(m, "chat_model", cfg.ChatModel)
	cfg.Timeout = llm.DurationOption(m, "timeout", cfg.Timeout)
	cfg.MaxRetries = llm.IntOption(m, "max_retries", cfg.MaxRetries)
	cfg.Temperature = llm.FloatOption(m, "temperature", cfg.Temperature)
	cfg.TopP = llm.FloatOption(m, "top_p", cfg.TopP)
	cfg.MaxTokens = llm.IntOption(m, "max_tokens", cfg.MaxTokens)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key is required")
	}
	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

func (p *Provider) Name() string  { return ProviderName }
func (p *Provider) Model() string { return p.config.EmbedModel }

func (p *Provider) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	if p.config.Organization != "" {
		h["OpenAI-Organization"] = p.config.Organization
	}
	return h
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed 调用 /embeddings，按返回的 index 恢复输入顺序。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	req := embeddingRequest{Model: p.config.EmbedModel, Input: texts}
	if err := p.client.PostJSON(ctx, p.config.BaseURL+"/embeddings", p.headers(), req, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embed: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate 调用 /chat/completions。
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	temperature := p.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       p.config.ChatModel,
		Messages:    messages,
		Temperature: temperature,
		TopP:        p.config.TopP,
		MaxTokens:   p.config.MaxTokens,
	}

	var resp chatResponse
	if err := p.client.PostJSON(ctx, p.config.BaseURL+"/chat/completions", p.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai generate: no choices returned")
	}

	out := &llm.GenerateResponse{Content: resp.Choices[0].Message.Content}
	if u := resp.Usage; u != nil {
		out.TokenUsage = &llm.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}
