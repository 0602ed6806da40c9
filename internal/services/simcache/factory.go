package simcache

import (
	"fmt"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// New builds the configured backend. It returns nil when caching is disabled.
func New(log *logger.Logger, cfg Config, movies repos.MovieRepo, rdb RedisClient, now Clock) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Backend {
	case BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("similarity cache: redis backend selected but no redis client configured")
		}
		return NewRedisCache(log, rdb, cfg.Prefix, cfg.TTL, now), nil
	default:
		if movies == nil {
			return nil, fmt.Errorf("similarity cache: movie repo required")
		}
		return NewMovieRowCache(log, movies, cfg.TTL, now), nil
	}
}
