// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（gemini, openai, ollama, offline）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。为空时 gemini 读取 GEMINI_API_KEY，openai 读取 OPENAI_API_KEY。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 传输层最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

var apiKeyEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "gemini",
		Model:      "text-embedding-004",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "gemini",
		Model:      "gemini-1.5-flash",
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options. The section name is taken
// from prefixes, e.g. "embedding" or "chat".
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (gemini, openai, ollama, offline).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL, empty for the provider default.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key (defaults to GEMINI_API_KEY / OPENAI_API_KEY).")
	fs.StringVar(&o.Model, p+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "LLM transport retries.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (openai only).")
}

// Complete fills the API key from the environment.
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" {
		if env, ok := apiKeyEnv[o.Provider]; ok {
			o.APIKey = os.Getenv(env)
		}
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return nil
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case "gemini", "openai", "ollama", "offline":
	case "":
		errs = append(errs, fmt.Errorf("provider is required"))
	default:
		errs = append(errs, fmt.Errorf("unsupported provider %q", o.Provider))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if env, ok := apiKeyEnv[o.Provider]; ok && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for %s provider (set %s)", o.Provider, env))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}
