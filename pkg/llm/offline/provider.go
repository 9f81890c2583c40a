// Package offline 提供无需网络的确定性供应商，用于本地开发与测试。
// Embedding 使用特征哈希词袋，Chat 返回提示中的上下文摘录。
package offline

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/kart-io/unirag/pkg/llm"
)

const ProviderName = "offline"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Provider 离线供应商。
type Provider struct {
	dim int
}

// NewProvider 从配置 map 创建离线供应商，dimension 默认 768。
func NewProvider(m map[string]any) (llm.Provider, error) {
	return New(llm.IntOption(m, "dimension", 768)), nil
}

// New 创建指定维度的离线供应商。
func New(dim int) *Provider {
	if dim <= 0 {
		dim = 768
	}
	return &Provider{dim: dim}
}

func (p *Provider) Name() string  { return ProviderName }
func (p *Provider) Model() string { return "feature-hash" }

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.vector(t)
	}
	return out, nil
}

func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.vector(text), nil
}

// vector 将小写词项哈希到固定维度并做 L2 归一化。
func (p *Provider) vector(text string) []float32 {
	v := make([]float32, p.dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		v[sum%uint64(p.dim)] += sign
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

// Generate 返回提示中的上下文部分；没有上下文时回显提示。
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := req.Prompt
	if i := strings.Index(content, "КОНТЕКСТ"); i >= 0 {
		content = content[i:]
		if j := strings.Index(content, "\n\n---\n\nВОПРОС"); j >= 0 {
			content = content[:j]
		}
	}
	words := len(strings.Fields(req.Prompt))
	return &llm.GenerateResponse{
		Content: content,
		TokenUsage: &llm.TokenUsage{
			PromptTokens:     words,
			CompletionTokens: len(strings.Fields(content)),
			TotalTokens:      words + len(strings.Fields(content)),
		},
	}, nil
}
