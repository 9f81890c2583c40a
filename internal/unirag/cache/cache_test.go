package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
	badgeropts "github.com/kart-io/unirag/pkg/options/badger"
	cacheopts "github.com/kart-io/unirag/pkg/options/cache"
)

func sampleResponse() *model.QueryResponse {
	tokens := 128
	return &model.QueryResponse{
		Answer: "Рекомендую КазНУ",
		Sources: []model.SourceCitation{{
			ID: 1, Name: "КазНУ", City: "Алматы", Category: "IT",
			RelevanceScore: 0.912, EntScoreRange: "70-120",
			ContactInfo: model.ContactInfo{Phone: "+7 727 000"},
		}},
		ProcessingTime: 1.5,
		Timestamp:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TokensUsed:     &tokens,
	}
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("IT университет в Алматы", nil)
	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint("  it УНИВЕРСИТЕТ в алматы ", nil))
	assert.Equal(t, base, Fingerprint("IT университет в Алматы", &model.Filters{}))

	withCity := Fingerprint("IT университет в Алматы", &model.Filters{City: "Алматы"})
	assert.NotEqual(t, base, withCity)

	a := Fingerprint("q", &model.Filters{City: "Алматы", MinScore: 70, Category: "IT"})
	b := Fingerprint("q", &model.Filters{Category: "IT", MinScore: 70, City: "Алматы"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Fingerprint("q", &model.Filters{City: "Алматы", MinScore: 71, Category: "IT"}))
}

// exerciseCache 对任意后端执行相同的行为检查。
func exerciseCache(t *testing.T, c QueryCache) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Clear(ctx))

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp := sampleResponse()
	require.NoError(t, c.Put(ctx, "fp1", resp))

	got, err = c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, resp.Answer, got.Answer)
	assert.Equal(t, resp.Sources, got.Sources)
	assert.True(t, resp.Timestamp.Equal(got.Timestamp))
	require.NotNil(t, got.TokensUsed)
	assert.Equal(t, 128, *got.TokensUsed)

	overwrite := sampleResponse()
	overwrite.Answer = "Рекомендую ЕНУ"
	require.NoError(t, c.Put(ctx, "fp1", overwrite))
	got, err = c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, "Рекомендую ЕНУ", got.Answer)

	require.NoError(t, c.Put(ctx, "fp2", resp))
	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Clear(ctx))
	n, err = c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	got, err = c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemory()
	exerciseCache(t, c)
	assert.Equal(t, "memory", c.Name())
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Put(ctx, "fp", sampleResponse()))

	got, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	got.Cached = true
	got.Sources[0].Name = "mutated"

	again, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, again.Cached)
	assert.Equal(t, "КазНУ", again.Sources[0].Name)
}

func TestBadgerCache(t *testing.T) {
	c, err := OpenBadger(&badgeropts.Options{InMemory: true}, "unirag:query:", 0)
	require.NoError(t, err)
	defer c.Close()

	exerciseCache(t, c)
	assert.Equal(t, "badger", c.Name())
}

func TestRedisCache(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	c := NewRedis(client, "unirag:test:query:", time.Minute)
	exerciseCache(t, c)
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoop()
	require.NoError(t, c.Put(ctx, "fp", sampleResponse()))
	got, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "disabled", c.Name())
}

func TestNew(t *testing.T) {
	c, err := New(&cacheopts.Options{Enabled: false}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "disabled", c.Name())

	c, err = New(&cacheopts.Options{Enabled: true, Backend: cacheopts.BackendMemory}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Name())

	_, err = New(&cacheopts.Options{Enabled: true, Backend: cacheopts.BackendRedis}, nil, nil)
	assert.Error(t, err)

	_, err = New(&cacheopts.Options{Enabled: true, Backend: "memcached"}, nil, nil)
	assert.Error(t, err)

	c, err = New(&cacheopts.Options{Enabled: true, Backend: cacheopts.BackendBadger, KeyPrefix: "p:"},
		nil, &badgeropts.Options{InMemory: true})
	require.NoError(t, err)
	assert.Equal(t, "badger", c.Name())
	require.NoError(t, c.Close())
}
