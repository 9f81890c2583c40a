// Package ollama 提供本地 Ollama 服务的供应商实现，适合离线开发。
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

const ProviderName = "ollama"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Ollama 供应商配置。
type Config struct {
	BaseURL     string
	EmbedModel  string
	ChatModel   string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	NumPredict  int
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:11434",
		EmbedModel:  "nomic-embed-text",
		ChatModel:   "llama3.1",
		Timeout:     120 * time.Second,
		MaxRetries:  1,
		Temperature: 0.7,
		NumPredict:  2048,
	}
}

// Provider Ollama 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建 Ollama 供应商。
func NewProvider(m map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(llm.StringOption(m, "base_url", cfg.BaseURL), "/")
	cfg.EmbedModel = llm.StringOption(m, "embed_model", cfg.EmbedModel)
	cfg.ChatModel = llm.StringOption(m, "chat_model", cfg.ChatModel)
	cfg.Timeout = llm.DurationOption(m, "timeout", cfg.Timeout)
	cfg.MaxRetries = llm.IntOption(m, "max_retries", cfg.MaxRetries)
	cfg.Temperature = llm.FloatOption(m, "temperature", cfg.Temperature)
	cfg.NumPredict = llm.IntOption(m, "max_tokens", cfg.NumPredict)
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

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed 调用 /api/embed。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	req := embedRequest{Model: p.config.EmbedModel, Input: texts}
	if err := p.client.PostJSON(ctx, p.config.BaseURL+"/api/embed", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate 调用 /api/generate（非流式）。
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	temperature := p.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	body := generateRequest{
		Model:  p.config.ChatModel,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Options: generateOptions{
			Temperature: temperature,
			NumPredict:  p.config.NumPredict,
		},
	}

	var resp generateResponse
	if err := p.client.PostJSON(ctx, p.config.BaseURL+"/api/generate", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	out := &llm.GenerateResponse{Content: resp.Response}
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		out.TokenUsage = &llm.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}
	return out, nil
}
