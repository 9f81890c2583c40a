package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

// Embedder 为 EmbeddingProvider 增加重试与熔断。
type Embedder struct {
	llm.EmbeddingProvider
	retry   RetryConfig
	breaker *Breaker
}

// WrapEmbedding 包装 Embedding 供应商。
func WrapEmbedding(p llm.EmbeddingProvider, retry RetryConfig, breaker BreakerConfig) *Embedder {
	return &Embedder{
		EmbeddingProvider: p,
		retry:             retry,
		breaker:           NewBreaker(p.Name()+"-embed", breaker),
	}
}

// Embed 带重试与熔断的批量嵌入。
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := Retry(ctx, e.retry, func() error {
		return e.breaker.Do(func() error {
			var err error
			out, err = e.EmbeddingProvider.Embed(ctx, texts)
			return err
		})
	})
	return out, err
}

// EmbedSingle 带重试与熔断的单条嵌入。
func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := Retry(ctx, e.retry, func() error {
		return e.breaker.Do(func() error {
			var err error
			out, err = e.EmbeddingProvider.EmbedSingle(ctx, text)
			return err
		})
	})
	return out, err
}

// Breaker 返回熔断器，用于统计。
func (e *Embedder) Breaker() *Breaker { return e.breaker }

// Chat 为 ChatProvider 增加重试与熔断。
type Chat struct {
	llm.ChatProvider
	retry   RetryConfig
	breaker *Breaker
}

// WrapChat 包装生成供应商。
func WrapChat(p llm.ChatProvider, retry RetryConfig, breaker BreakerConfig) *Chat {
	return &Chat{
		ChatProvider: p,
		retry:        retry,
		breaker:      NewBreaker(p.Name()+"-chat", breaker),
	}
}

// Generate 带重试与熔断的生成。
func (c *Chat) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	var out *llm.GenerateResponse
	err := Retry(ctx, c.retry, func() error {
		return c.breaker.Do(func() error {
			var err error
			out, err = c.ChatProvider.Generate(ctx, req)
			return err
		})
	})
	return out, err
}

// Breaker 返回熔断器，用于统计。
func (c *Chat) Breaker() *Breaker { return c.breaker }

// IsRetryable 判断错误是否值得重试：429、5xx、网络错误。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBreakerOpen) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
