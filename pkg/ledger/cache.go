package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisClient is the subset of redis.Client commands the cache uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cache is a Redis-backed read cache of the latest record per
// (account, hash). It is strictly best-effort: misses and Redis errors
// fall through to Postgres.
type Cache struct {
	rdb    redisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a ledger cache over an existing Redis client.
func NewCache(rdb redisClient, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(account, txHash string) string {
	return fmt.Sprintf("ledger:%s:%s", normalizeAccount(account), txHash)
}

// Put stores the record under its account/hash key.
func (c *Cache) Put(ctx context.Context, account string, rec *Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("Failed to marshal record for cache", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(account, rec.TxHash), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache record",
			zap.String("tx_hash", rec.TxHash),
			zap.Error(err))
	}
}

// Get returns the cached record, if any.
func (c *Cache) Get(ctx context.Context, account, txHash string) (*Record, bool) {
	payload, err := c.rdb.Get(ctx, cacheKey(account, txHash)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Ledger cache read failed",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		c.logger.Warn("Corrupt cache entry dropped",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		_ = c.rdb.Del(ctx, cacheKey(account, txHash)).Err()
		return nil, false
	}
	return &rec, true
}
