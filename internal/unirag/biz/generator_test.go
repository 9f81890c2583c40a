package biz

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/llm/resilience"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

// fakeChat 可编程的生成服务。
type fakeChat struct {
	mu      sync.Mutex
	content string
	usage   *llm.TokenUsage
	err     error
	calls   int
	last    *llm.GenerateRequest
}

func (f *fakeChat) Name() string { return "fake" }

func (f *fakeChat) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &llm.GenerateResponse{Content: f.content, TokenUsage: f.usage}, nil
}

func (f *fakeChat) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Где учиться на IT?", "[Университет 1]:\nКБТУ")

	assert.True(t, len(p) > len(SystemPrompt))
	assert.Contains(t, p, "КОНТЕКСТ (информация об университетах Казахстана):\n[Университет 1]:\nКБТУ")
	assert.Contains(t, p, "ВОПРОС АБИТУРИЕНТА:\nГде учиться на IT?")
	assert.Contains(t, p, "используя ТОЛЬКО информацию из контекста выше")
}

func TestGenerateSuccess(t *testing.T) {
	chat := &fakeChat{content: "ответ", usage: &llm.TokenUsage{TotalTokens: 42}}
	m := metrics.New()
	g := NewGenerator(chat, GeneratorConfig{}, m)

	gen := g.Generate(context.Background(), "вопрос", "контекст", 0.3)
	require.NoError(t, gen.Err)
	assert.Equal(t, "ответ", gen.Answer)
	require.NotNil(t, gen.TokensUsed)
	assert.Equal(t, 42, *gen.TokensUsed)
	require.NotNil(t, chat.last.Temperature)
	assert.Equal(t, 0.3, *chat.last.Temperature)
	assert.Equal(t, "fake", g.Name())

	llmStats := m.Stats()["llm"].(map[string]any)
	assert.Equal(t, uint64(1), llmStats["calls_total"])
}

func TestGenerateWithoutUsage(t *testing.T) {
	g := NewGenerator(&fakeChat{content: "ответ"}, GeneratorConfig{}, metrics.New())
	gen := g.Generate(context.Background(), "вопрос", "контекст", 0.7)
	require.NoError(t, gen.Err)
	assert.Nil(t, gen.TokensUsed)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name string
		chat *fakeChat
		want *errors.Errno
	}{
		{"unavailable", &fakeChat{err: stderrors.New("connection reset")}, errors.ErrLLMUnavailable},
		{"rate limited", &fakeChat{err: &httpclient.StatusError{StatusCode: http.StatusTooManyRequests}}, errors.ErrLLMRateLimited},
		{"bad key", &fakeChat{err: &httpclient.StatusError{StatusCode: http.StatusForbidden}}, errors.ErrLLMConfig},
		{"timeout", &fakeChat{err: context.DeadlineExceeded}, errors.ErrRAGQueryTimeout},
		{"empty completion", &fakeChat{content: ""}, errors.ErrLLMBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.chat, GeneratorConfig{}, metrics.New())
			gen := g.Generate(context.Background(), "вопрос", "контекст", 0.7)
			require.Error(t, gen.Err)
			assert.ErrorIs(t, gen.Err, tt.want)
			assert.Equal(t, GenerationFailedAnswer, gen.Answer)
			assert.Nil(t, gen.TokensUsed)
		})
	}
}

func TestGenerateRateLimit(t *testing.T) {
	chat := &fakeChat{content: "ответ"}
	g := NewGenerator(chat, GeneratorConfig{MaxRequestsPerMinute: 1, Timeout: 50 * time.Millisecond}, metrics.New())

	first := g.Generate(context.Background(), "вопрос", "контекст", 0.7)
	require.NoError(t, first.Err)

	second := g.Generate(context.Background(), "вопрос", "контекст", 0.7)
	assert.ErrorIs(t, second.Err, errors.ErrLLMRateLimited)
	assert.Equal(t, 1, chat.callCount())
}

func TestCheckHealth(t *testing.T) {
	chat := &fakeChat{content: "привет"}
	g := NewGenerator(chat, GeneratorConfig{}, metrics.New())
	assert.Equal(t, "connected", g.CheckHealth(context.Background()))

	chat.setErr(&httpclient.StatusError{StatusCode: http.StatusUnauthorized, Body: "API key invalid"})
	assert.Equal(t, "error: http 401", g.CheckHealth(context.Background()))

	chat.setErr(resilience.ErrBreakerOpen)
	assert.Equal(t, "error: circuit breaker open", g.CheckHealth(context.Background()))

	chat.setErr(context.DeadlineExceeded)
	assert.Equal(t, "error: timeout", g.CheckHealth(context.Background()))

	chat.setErr(stderrors.New("dial tcp"))
	assert.Equal(t, "error: unavailable", g.CheckHealth(context.Background()))
}
