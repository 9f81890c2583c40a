// Package cache 提供查询结果缓存，键为问题与过滤条件的指纹。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/unirag/internal/model"
	badgeropts "github.com/kart-io/unirag/pkg/options/badger"
	cacheopts "github.com/kart-io/unirag/pkg/options/cache"
)

// QueryCache 查询结果缓存。Get 未命中时返回 (nil, nil)。
type QueryCache interface {
	Get(ctx context.Context, fingerprint string) (*model.QueryResponse, error)
	// Put 覆盖写入，后写者胜出。
	Put(ctx context.Context, fingerprint string, resp *model.QueryResponse) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	// Name 返回后端名称。
	Name() string
	Close() error
}

// Fingerprint 计算查询指纹：问题转小写并去除首尾空白，
// 有过滤条件时按键名排序追加 key=value，最后取 SHA-256。
func Fingerprint(question string, filters *model.Filters) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(strings.TrimSpace(question)))

	if pairs := filterPairs(filters); len(pairs) > 0 {
		sort.Strings(pairs)
		sb.WriteString("|")
		sb.WriteString(strings.Join(pairs, "|"))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func filterPairs(f *model.Filters) []string {
	if f.IsZero() {
		return nil
	}
	pairs := make([]string, 0, 4)
	if f.City != "" {
		pairs = append(pairs, "city="+f.City)
	}
	if f.Category != "" {
		pairs = append(pairs, "category="+f.Category)
	}
	if f.MinScore != 0 {
		pairs = append(pairs, "min_score="+strconv.Itoa(f.MinScore))
	}
	if f.MaxScore != 0 {
		pairs = append(pairs, "max_score="+strconv.Itoa(f.MaxScore))
	}
	return pairs
}

// New 按配置创建缓存后端。redis 后端需要传入 client。
func New(opts *cacheopts.Options, client *goredis.Client, bopts *badgeropts.Options) (QueryCache, error) {
	if opts == nil || !opts.Enabled {
		return NewNoop(), nil
	}

	switch opts.Backend {
	case cacheopts.BackendMemory, "":
		return NewMemory(), nil
	case cacheopts.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis cache: client is nil")
		}
		return NewRedis(client, opts.KeyPrefix, opts.TTL), nil
	case cacheopts.BackendBadger:
		return OpenBadger(bopts, opts.KeyPrefix, opts.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", opts.Backend)
	}
}
