package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/yungbote/movierec-backend/internal/clients/redis"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/platform/qdrant"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
	"github.com/yungbote/movierec-backend/internal/services/simcache"
)

type Clients struct {
	Voyage  *voyage.Client
	Vectors vectorstore.Store
	Redis   *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	gateway, err := voyage.NewClient(log, cfg.Voyage)
	if err != nil {
		return Clients{}, fmt.Errorf("init voyage client: %w", err)
	}

	store, err := qdrant.NewVectorStore(log, cfg.Qdrant)
	if err != nil {
		return Clients{}, fmt.Errorf("init qdrant vector store: %w", err)
	}

	// Redis is only dialled when something uses it.
	var rdb *goredis.Client
	redisCache := cfg.Cache.Enabled() && cfg.Cache.Backend == simcache.BackendRedis
	if redisCache || strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err = redisclient.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			if redisCache {
				return Clients{}, fmt.Errorf("init redis: %w", err)
			}
			log.Warn("redis unavailable (continuing without it)", "error", err)
			rdb = nil
		}
	}

	return Clients{
		Voyage:  gateway,
		Vectors: instrumentVectorStore(store),
		Redis:   rdb,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
