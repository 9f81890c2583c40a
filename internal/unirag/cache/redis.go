package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/pkg/utils/json"
)

// Redis 基于 Redis 的缓存，值为 JSON，ttl 为 0 时不过期。
type Redis struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ QueryCache = (*Redis)(nil)

// NewRedis 创建 Redis 缓存。
func NewRedis(client *goredis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(fp string) string { return r.prefix + fp }

func (r *Redis) Get(ctx context.Context, fp string) (*model.QueryResponse, error) {
	key := r.key(fp)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var resp model.QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("dropping corrupted cache entry", "key", key, "error", err.Error())
		_ = r.client.Del(ctx, key).Err()
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

func (r *Redis) Put(ctx context.Context, fp string, resp *model.QueryResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := r.client.Set(ctx, r.key(fp), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear 使用 SCAN 删除前缀下的所有键。
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "key", iter.Val(), "error", err.Error())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	logger.Infow("cleared query cache", "backend", r.Name(), "deleted_count", deleted)
	return nil
}

func (r *Redis) Len(ctx context.Context) (int, error) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	n := 0
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func (r *Redis) Name() string { return "redis" }

// Close 不关闭共享的 client。
func (r *Redis) Close() error { return nil }
