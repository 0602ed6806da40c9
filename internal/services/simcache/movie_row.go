package simcache

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// movieRowCache keeps the candidate list on the favourite's own movie row.
type movieRowCache struct {
	log    *logger.Logger
	movies repos.MovieRepo
	ttl    time.Duration
	now    Clock
}

func NewMovieRowCache(log *logger.Logger, movies repos.MovieRepo, ttl time.Duration, now Clock) Cache {
	if now == nil {
		now = time.Now
	}
	return &movieRowCache{
		log:    log.With("cache", "MovieRowCache"),
		movies: movies,
		ttl:    ttl,
		now:    now,
	}
}

func (c *movieRowCache) Lookup(ctx context.Context, key string) (Result, error) {
	m, err := c.movies.GetByID(dbctx.New(ctx), key)
	if err != nil {
		return Result{}, fmt.Errorf("similarity cache lookup %s: %w", key, err)
	}
	entry, ok := m.CacheEntry()
	if !ok || !fresh(entry.Candidates, entry.LastUpdated, c.now(), c.ttl) {
		observability.Current().IncCacheLookup(string(BackendPostgres), observability.OutcomeCacheMiss)
		return Result{}, nil
	}
	observability.Current().IncCacheLookup(string(BackendPostgres), observability.OutcomeCacheHit)
	return Result{Hit: true, Candidates: entry.Candidates}, nil
}

func (c *movieRowCache) Store(ctx context.Context, key string, candidates []string) error {
	if err := c.movies.SetSimilarCandidates(dbctx.New(ctx), key, candidates, c.now().UTC()); err != nil {
		return fmt.Errorf("similarity cache store %s: %w", key, err)
	}
	c.log.Debug("similarity cache stored", "movie_id", key, "candidates", len(candidates))
	return nil
}
