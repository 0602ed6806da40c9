package simcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// RedisClient is the subset of go-redis used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

type redisCache struct {
	log    *logger.Logger
	rdb    RedisClient
	prefix string
	ttl    time.Duration
	now    Clock
}

// NewRedisCache stores entries as JSON under "<prefix>:<key>". The redis
// expiry only reclaims memory; validity is decided by the stored timestamp.
func NewRedisCache(log *logger.Logger, rdb RedisClient, prefix string, ttl time.Duration, now Clock) Cache {
	if now == nil {
		now = time.Now
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &redisCache{
		log:    log.With("cache", "RedisCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		now:    now,
	}
}

func (c *redisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *redisCache) Lookup(ctx context.Context, key string) (Result, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		observability.Current().IncCacheLookup(string(BackendRedis), observability.OutcomeCacheMiss)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("similarity cache lookup %s: %w", key, err)
	}
	var entry types.SimilarityEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("similarity cache entry unreadable, treating as miss", "key", key, "error", err)
		observability.Current().IncCacheLookup(string(BackendRedis), observability.OutcomeCacheMiss)
		return Result{}, nil
	}
	if !fresh(entry.Candidates, entry.LastUpdated, c.now(), c.ttl) {
		observability.Current().IncCacheLookup(string(BackendRedis), observability.OutcomeCacheMiss)
		return Result{}, nil
	}
	observability.Current().IncCacheLookup(string(BackendRedis), observability.OutcomeCacheHit)
	return Result{Hit: true, Candidates: entry.Candidates}, nil
}

func (c *redisCache) Store(ctx context.Context, key string, candidates []string) error {
	b, err := json.Marshal(types.SimilarityEntry{Candidates: candidates, LastUpdated: c.now().UTC()})
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("similarity cache store %s: %w", key, err)
	}
	return nil
}
