// Package cache keeps derived fine figures in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/library-engine/pkg/errors"
)

// FineCache stores each user's unpaid fine total
type FineCache interface {
	// GetOutstanding returns the cached total; found is false on a miss
	GetOutstanding(ctx context.Context, userID int64) (amount int64, found bool, err error)
	// Version returns the user's invalidation counter. Read it before
	// loading the total from the store and hand it to SetOutstanding.
	Version(ctx context.Context, userID int64) (int64, error)
	// SetOutstanding stores amount only if no Invalidate ran since version
	// was read. stored is false when the write was skipped.
	SetOutstanding(ctx context.Context, userID int64, amount int64, version int64) (stored bool, err error)
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// versionTTL outlives any cached total so a counter never resets under a
// reader that is still holding it.
const versionTTL = 24 * time.Hour

// setIfVersion writes KEYS[1] only while KEYS[2] still holds ARGV[2].
var setIfVersion = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

type redisFineCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisFineCache(rdb redis.Cmdable, ttl time.Duration) FineCache {
	return &redisFineCache{rdb: rdb, ttl: ttl}
}

func outstandingKey(userID int64) string { return fmt.Sprintf("fines:outstanding:%d", userID) }

func versionKey(userID int64) string { return outstandingKey(userID) + ":version" }

func (c *redisFineCache) GetOutstanding(ctx context.Context, userID int64) (int64, bool, error) {
	amount, err := c.rdb.Get(ctx, outstandingKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, customError.WrapCacheError(err)
	}
	return amount, true, nil
}

func (c *redisFineCache) Version(ctx context.Context, userID int64) (int64, error) {
	version, err := c.rdb.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, customError.WrapCacheError(err)
	}
	return version, nil
}

func (c *redisFineCache) SetOutstanding(ctx context.Context, userID int64, amount int64, version int64) (bool, error) {
	keys := []string{outstandingKey(userID), versionKey(userID)}
	stored, err := setIfVersion.Run(ctx, c.rdb, keys,
		amount, strconv.FormatInt(version, 10), c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, customError.WrapCacheError(err)
	}
	return stored == 1, nil
}

// Invalidate bumps each user's version before dropping the total, so a
// reader that loaded the store before the bump cannot write its result back.
func (c *redisFineCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), versionTTL)
			pipe.Del(ctx, outstandingKey(id))
		}
		return nil
	})
	if err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}
