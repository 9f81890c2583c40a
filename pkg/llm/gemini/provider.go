// Package gemini 提供 Google Gemini 供应商实现（batchEmbedContents / generateContent）。
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

const ProviderName = "gemini"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Gemini 供应商配置。
type Config struct {
	BaseURL         string
	APIKey          string
	EmbedModel      string
	ChatModel       string
	Timeout         time.Duration
	MaxRetries      int
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		EmbedModel:      "text-embedding-004",
		ChatModel:       "gemini-1.5-flash",
		Timeout:         60 * time.Second,
		MaxRetries:      2,
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 2048,
	}
}

// Provider Gemini 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建 Gemini 供应商。
func NewProvider(m map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(llm.StringOption(m, "base_url", cfg.BaseURL), "/")
	cfg.APIKey = llm.StringOption(m, "api_key", cfg.APIKey)
	cfg.EmbedModel = llm.StringOption(m, "embed_model", cfg.EmbedModel)
	cfg.ChatModel = llm.StringOption(m, "chat_model", cfg.ChatModel)
	cfg.Timeout = llm.DurationOption(m, "timeout", cfg.Timeout)
	cfg.MaxRetries = llm.IntOption(m, "max_retries", cfg.MaxRetries)
	cfg.Temperature = llm.FloatOption(m, "temperature", cfg.Temperature)
	cfg.TopP = llm.FloatOption(m, "top_p", cfg.TopP)
	cfg.TopK = llm.IntOption(m, "top_k", cfg.TopK)
	cfg.MaxOutputTokens = llm.IntOption(m, "max_tokens", cfg.MaxOutputTokens)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api_key is required")
	}
	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Gemini 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string { return ProviderName }

// Model 返回嵌入模型名称。
func (p *Provider) Model() string { return p.config.EmbedModel }

// headers 使用请求头传递密钥，避免密钥出现在 URL 和错误信息中。
func (p *Provider) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.config.APIKey}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// Embed 为多个文本生成向量嵌入。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := "models/" + p.config.EmbedModel
	reqBody := embedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = embedContentRequest{
			Model:   model,
			Content: content{Parts: []part{{Text: text}}},
		}
	}

	url := fmt.Sprintf("%s/%s:batchEmbedContents", p.config.BaseURL, model)
	var resp embedResponse
	if err := p.client.PostJSON(ctx, url, p.headers(), reqBody, &resp); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
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

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Generate 调用 generateContent。
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	temperature := p.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			TopP:            p.config.TopP,
			TopK:            p.config.TopK,
			MaxOutputTokens: p.config.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.config.BaseURL, p.config.ChatModel)
	var resp generateResponse
	if err := p.client.PostJSON(ctx, url, p.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini generate: empty candidates")
	}

	var sb strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}

	out := &llm.GenerateResponse{Content: sb.String()}
	if u := resp.UsageMetadata; u != nil {
		out.TokenUsage = &llm.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	return out, nil
}
