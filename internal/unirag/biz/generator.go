package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/pkg/errors"
	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	"github.com/kart-io/unirag/pkg/infra/tracing"
	"github.com/kart-io/unirag/pkg/llm"
	"github.com/kart-io/unirag/pkg/llm/resilience"
	"github.com/kart-io/unirag/pkg/utils/httpclient"
)

// GenerationFailedAnswer 生成失败时返回给用户的文本，不包含内部细节。
const GenerationFailedAnswer = "Извините, произошла ошибка при генерации ответа. Пожалуйста, попробуйте позже."

// SystemPrompt 职业顾问人设。
const SystemPrompt = `Ты — профессиональный профориентолог Казахстана с 15-летним опытом работы в сфере образования.

Твой стиль общения:
- Эмпатичный и поддерживающий
- Задаёшь уточняющие вопросы при необходимости
- Даёшь реалистичные, но мотивирующие советы
- Учитываешь финансовую ситуацию семьи
- Говоришь на понятном языке, избегая сложных терминов

ВСЕГДА структурируй ответ так:

1. 📊 **Анализ ситуации студента**
   Кратко проанализируй запрос и ключевые факторы

2. 🎯 **Топ-3 рекомендации с обоснованием:**
   Для каждого университета укажи:
   - 🏛️ Университет + специальность
   - ✅ Почему подходит
   - 📋 Требования и шансы поступления (баллы ЕНТ, предметы)
   - 💰 Стоимость обучения (если известно)

3. 🔄 **Альтернативные варианты**
   Укажи 1-2 запасных варианта

4. 📝 **Конкретный план действий**
   Пошаговые действия для поступления

5. 💪 **Мотивационное заключение**
   Поддержи абитуриента

Используй эмодзи для структуры, пиши на русском языке, будь конкретным с цифрами.
Если информации недостаточно для полного ответа, честно скажи об этом и предложи уточнить вопрос.`

const healthPrompt = "Привет"

// BuildPrompt 组装完整提示：人设、上下文、问题与约束说明。
func BuildPrompt(question, contextText string) string {
	return SystemPrompt + "\n\n---\n\n" +
		"КОНТЕКСТ (информация об университетах Казахстана):\n" + contextText + "\n\n---\n\n" +
		"ВОПРОС АБИТУРИЕНТА:\n" + question + "\n\n---\n\n" +
		"Дай развернутый ответ, используя ТОЛЬКО информацию из контекста выше.\n" +
		"Если в контексте нет нужной информации, честно скажи об этом."
}

// Generation 生成结果。Err 非空时 Answer 为 GenerationFailedAnswer。
type Generation struct {
	Answer     string
	TokensUsed *int
	Err        error
}

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// MaxRequestsPerMinute 每分钟允许的生成请求数。
	MaxRequestsPerMinute int
	// Timeout 单次生成（含排队等待）的超时。
	Timeout time.Duration
	// HealthTimeout 健康检查超时。
	HealthTimeout time.Duration
}

// Generator 负责答案生成，带限流与超时。
type Generator struct {
	chat    llm.ChatProvider
	limiter *rate.Limiter
	cfg     GeneratorConfig
	metrics *metrics.RAGMetrics
}

// NewGenerator 创建生成器。chat 通常已由 resilience.WrapChat 包装。
func NewGenerator(chat llm.ChatProvider, cfg GeneratorConfig, m *metrics.RAGMetrics) *Generator {
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = 15
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.Default()
	}

	every := time.Minute / time.Duration(cfg.MaxRequestsPerMinute)
	return &Generator{
		chat:    chat,
		limiter: rate.NewLimiter(rate.Every(every), cfg.MaxRequestsPerMinute),
		cfg:     cfg,
		metrics: m,
	}
}

// Name 返回底层供应商名称。
func (g *Generator) Name() string { return g.chat.Name() }

// Generate 根据上下文回答问题，失败时返回用户可见的兜底文本。
func (g *Generator) Generate(ctx context.Context, question, contextText string, temperature float64) Generation {
	ctx, span := tracing.StartSpan(ctx, tracerName, "unirag.Generate",
		attribute.String("llm.provider", g.chat.Name()),
		attribute.Float64("llm.temperature", temperature),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		err = errors.ErrLLMRateLimited.WithCause(err)
		tracing.RecordError(ctx, err)
		logctx.GetLogger(ctx).Warnw("generation throttled", "error", err.Error())
		g.metrics.RecordLLMCall(0, 0, err)
		return Generation{Answer: GenerationFailedAnswer, Err: err}
	}

	start := time.Now()
	resp, err := g.chat.Generate(ctx, &llm.GenerateRequest{
		Prompt:      BuildPrompt(question, contextText),
		Temperature: &temperature,
	})
	if err == nil && (resp == nil || resp.Content == "") {
		err = errors.ErrLLMBadResponse.WithMessage("empty completion")
	}
	if err != nil {
		err = classify(err)
		tracing.RecordError(ctx, err)
		logctx.GetLogger(ctx).Errorw("llm generation failed", "provider", g.chat.Name(), "error", err.Error())
		g.metrics.RecordLLMCall(time.Since(start), 0, err)
		return Generation{Answer: GenerationFailedAnswer, Err: err}
	}

	gen := Generation{Answer: resp.Content}
	tokens := 0
	if resp.TokenUsage != nil {
		tokens = resp.TokenUsage.TotalTokens
		gen.TokensUsed = &tokens
		span.SetAttributes(attribute.Int("llm.tokens", tokens))
	}
	g.metrics.RecordLLMCall(time.Since(start), tokens, nil)
	logctx.GetLogger(ctx).Infow("generated response", "chars", len([]rune(resp.Content)), "tokens", tokens)
	return gen
}

// CheckHealth 发送极短提示检测生成服务，返回 "connected" 或 "error: <原因>"。
func (g *Generator) CheckHealth(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.HealthTimeout)
	defer cancel()

	_, err := g.chat.Generate(ctx, &llm.GenerateRequest{Prompt: healthPrompt})
	if err != nil {
		logger.Warnw("generation health check failed", "provider", g.chat.Name(), "error", err.Error())
		return "error: " + reason(err)
	}
	return "connected"
}

// classify 将底层错误映射为错误码。
func classify(err error) error {
	var e *errors.Errno
	if stderrors.As(err, &e) {
		return err
	}
	var statusErr *httpclient.StatusError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrRAGQueryTimeout.WithCause(err)
	case stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
		return errors.ErrLLMRateLimited.WithCause(err)
	case stderrors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		return errors.ErrLLMConfig.WithCause(err)
	default:
		return errors.ErrLLMUnavailable.WithCause(err)
	}
}

// reason 返回不含敏感信息的简短错误类别。
func reason(err error) string {
	var statusErr *httpclient.StatusError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case stderrors.Is(err, resilience.ErrBreakerOpen):
		return "circuit breaker open"
	case stderrors.As(err, &statusErr):
		return fmt.Sprintf("http %d", statusErr.StatusCode)
	default:
		return "unavailable"
	}
}
