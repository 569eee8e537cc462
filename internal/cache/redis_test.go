package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-plans/internal/config"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := InitServer(context.Background(), config.Redis{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestReserve(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.Reserve(ctx, "invoice:123456", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.Reserve(ctx, "invoice:123456", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cache.Reserve(ctx, "invoice:654321", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserve_ExpiresAfterTTL(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.Reserve(ctx, "invoice:111111", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = cache.Reserve(ctx, "invoice:111111", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitServer_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = InitServer(context.Background(), config.Redis{AddressRedis: addr, DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.InitServer")
}
