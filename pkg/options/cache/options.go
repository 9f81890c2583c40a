// Package cache provides query cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Options 查询缓存配置。
type Options struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Backend 缓存后端（memory, redis, badger）。
	Backend string `json:"backend" mapstructure:"backend"`

	// TTL 缓存过期时间，0 表示不过期（memory 后端忽略）。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		Backend:   BackendMemory,
		KeyPrefix: "unirag:query:",
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable query result cache.")
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Cache backend (memory, redis, badger).")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Cache TTL, 0 keeps entries until cleared.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Cache key prefix.")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendMemory, BackendRedis, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not supported", o.Backend))
	}
	if o.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}
	if o.Backend != BackendMemory && o.KeyPrefix == "" {
		errs = append(errs, fmt.Errorf("cache.key-prefix is required for %s backend", o.Backend))
	}
	return errs
}
