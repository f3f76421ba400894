package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisCache(rdb)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, c := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "categories", []string{"Accessories", "Lighting"}, time.Minute))
	raw, err := mr.Get("categories")
	require.NoError(t, err)
	assert.JSONEq(t, `["Accessories","Lighting"]`, raw)

	var out []string
	found, err := c.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Accessories", "Lighting"}, out)
}

func TestRedisCacheMiss(t *testing.T) {
	_, c := newTestRedisCache(t)

	var out []string
	found, err := c.Get(context.Background(), "absent", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestRedisCacheDelete(t *testing.T) {
	mr, c := newTestRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))

	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestRedisCacheExpiry(t *testing.T) {
	mr, c := newTestRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	var out string
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	mr, c := newTestRedisCache(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var out []string
	found, err := c.Get(context.Background(), "k", &out)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestRedisCacheServerDown(t *testing.T) {
	mr, c := newTestRedisCache(t)
	mr.Close()

	var out []string
	_, err := c.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "k", 1, time.Minute))
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []string{"a"}, time.Minute))

	var out []string
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestNewLogger(t *testing.T) {
	log := NewLogger("debug", "json")
	assert.Equal(t, "debug", log.GetLevel().String())

	log = NewLogger("chatty", "text")
	assert.Equal(t, "info", log.GetLevel().String())
}
