package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/library-engine/pkg/errors"
)

func newTestCache(t *testing.T, ttl time.Duration) (FineCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisFineCache(rdb, ttl), mr
}

func TestRedisFineCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	amount, found, err := c.GetOutstanding(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, amount)
}

func TestRedisFineCache_SetAndGet(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	stored, err := c.SetOutstanding(ctx, 7, 33000, 0)
	require.NoError(t, err)
	assert.True(t, stored)

	amount, found, err := c.GetOutstanding(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(33000), amount)
	assert.Equal(t, time.Minute, mr.TTL("fines:outstanding:7"))
}

func TestRedisFineCache_ZeroIsAHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.SetOutstanding(ctx, 3, 0, 0)
	require.NoError(t, err)

	amount, found, err := c.GetOutstanding(ctx, 3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, amount)
}

func TestRedisFineCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.SetOutstanding(ctx, 7, 1000, 0)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, found, err := c.GetOutstanding(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisFineCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.SetOutstanding(ctx, 1, 100, 0)
	require.NoError(t, err)
	_, err = c.SetOutstanding(ctx, 2, 200, 0)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, 1, 2, 3))
	assert.False(t, mr.Exists("fines:outstanding:1"))
	assert.False(t, mr.Exists("fines:outstanding:2"))
	for _, id := range []int64{1, 2, 3} {
		version, err := c.Version(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
	}
	assert.Equal(t, versionTTL, mr.TTL("fines:outstanding:1:version"))

	require.NoError(t, c.Invalidate(ctx))
}

func TestRedisFineCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, err := c.GetOutstanding(context.Background(), 1)
	assert.Equal(t, customError.ErrCodeCacheError, customError.CodeOf(err))

	_, err = c.Version(context.Background(), 1)
	assert.Equal(t, customError.ErrCodeCacheError, customError.CodeOf(err))

	_, err = c.SetOutstanding(context.Background(), 1, 100, 0)
	assert.Equal(t, customError.ErrCodeCacheError, customError.CodeOf(err))

	err = c.Invalidate(context.Background(), 1)
	assert.Equal(t, customError.ErrCodeCacheError, customError.CodeOf(err))
}

func TestRedisFineCache_StaleFillAfterInvalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	// reader takes the version and goes to the store
	version, err := c.Version(ctx, 5)
	require.NoError(t, err)

	// a payment commits and invalidates while the reader is away
	require.NoError(t, c.Invalidate(ctx, 5))

	stored, err := c.SetOutstanding(ctx, 5, 9000, version)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("fines:outstanding:5"))

	// a reader that started after the invalidate may fill
	version, err = c.Version(ctx, 5)
	require.NoError(t, err)
	stored, err = c.SetOutstanding(ctx, 5, 0, version)
	require.NoError(t, err)
	assert.True(t, stored)

	amount, found, err := c.GetOutstanding(ctx, 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, amount)
}
