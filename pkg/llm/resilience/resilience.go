// Package resilience 为 LLM 调用提供重试与熔断。
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// ErrBreakerOpen 熔断器处于打开状态时返回。
var ErrBreakerOpen = errors.New("circuit breaker is open")

// RetryConfig 重试配置。
type RetryConfig struct {
	// MaxAttempts 最大尝试次数（包括首次调用）。
	MaxAttempts int
	// InitialDelay 首次重试前的等待时间。
	InitialDelay time.Duration
	// MaxDelay 退避上限。
	MaxDelay time.Duration
	// Multiplier 指数退避倍数。
	Multiplier float64
	// Retryable 为 nil 时使用 IsRetryable。
	Retryable func(error) bool
}

// DefaultRetryConfig 返回默认重试配置。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
	}
}

// BreakerConfig 熔断器配置。
type BreakerConfig struct {
	// MaxFailures 连续失败达到该值时打开。
	MaxFailures int
	// OpenTimeout 打开状态持续时间，之后进入半开。
	OpenTimeout time.Duration
	// HalfOpenProbes 半开状态允许的探测调用数。
	HalfOpenProbes int
}

// DefaultBreakerConfig 返回默认熔断器配置。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:    5,
		OpenTimeout:    30 * time.Second,
		HalfOpenProbes: 1,
	}
}

// State 熔断器状态。
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker 熔断器。
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	successes int
}

// NewBreaker 创建熔断器，name 仅用于日志。
func NewBreaker(name string, config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	if config.HalfOpenProbes <= 0 {
		config.HalfOpenProbes = 1
	}
	return &Breaker{name: name, config: config, now: time.Now}
}

// Do 通过熔断器执行 fn。
func (b *Breaker) Do(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.OpenTimeout {
			return ErrBreakerOpen
		}
		logger.Infow("circuit breaker half-open", "breaker", b.name)
		b.state = StateHalfOpen
		b.probes = 1
		b.successes = 0
		return nil
	default:
		if b.probes >= b.config.HalfOpenProbes {
			return ErrBreakerOpen
		}
		b.probes++
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// 调用方取消不计入失败
	if errors.Is(err, context.Canceled) {
		return
	}

	if err == nil {
		switch b.state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.probes {
				logger.Infow("circuit breaker closed", "breaker", b.name)
				b.state = StateClosed
				b.failures = 0
			}
		}
		return
	}

	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.config.MaxFailures {
			logger.Warnw("circuit breaker opened",
				"breaker", b.name,
				"failures", b.failures,
				"error", err.Error(),
			)
			b.state = StateOpen
			b.openedAt = b.now()
		}
	case StateHalfOpen:
		logger.Warnw("circuit breaker re-opened", "breaker", b.name, "error", err.Error())
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State 返回当前状态。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures 返回当前连续失败次数。
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset 恢复为关闭状态。
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probes = 0
	b.successes = 0
}

// Retry 以指数退避重试 fn，不可重试的错误立即返回。
func Retry(ctx context.Context, config RetryConfig, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	delay := config.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= config.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		logger.Debugw("retrying llm call", "attempt", attempt, "delay", delay, "error", err.Error())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if config.Multiplier > 1 {
			delay = time.Duration(float64(delay) * config.Multiplier)
		}
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}
