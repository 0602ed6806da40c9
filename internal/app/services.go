package app

import (
	"fmt"
	"time"

	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/services"
	"github.com/yungbote/movierec-backend/internal/services/simcache"
)

type Services struct {
	Favourites     services.FavouriteSelector
	Recommendation services.RecommendationService
	PlotSearch     services.PlotSearchService
	Viewing        services.ViewingService
	Movies         services.MovieService
	Backfill       services.EmbeddingBackfill
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	var rdb simcache.RedisClient
	if clients.Redis != nil {
		rdb = clients.Redis
	}
	cache, err := simcache.New(log, cfg.Cache, reposet.Movie, rdb, time.Now)
	if err != nil {
		return Services{}, fmt.Errorf("init similarity cache: %w", err)
	}

	favourites := services.NewFavouriteSelector(log, reposet.Customer, reposet.Movie)
	return Services{
		Favourites: favourites,
		Recommendation: services.NewRecommendationService(
			log,
			favourites,
			reposet.Movie,
			clients.Vectors,
			clients.Voyage,
			cache,
			services.RecommendationConfig{Retrieval: cfg.Retrieval, Cache: cfg.Cache},
		),
		PlotSearch: services.NewPlotSearchService(log, reposet.Movie, clients.Vectors, clients.Voyage, cfg.Retrieval),
		Viewing:    services.NewViewingService(log, reposet.Viewing, reposet.Customer, cfg.Viewing),
		Movies:     services.NewMovieService(log, reposet.Movie),
		Backfill:   services.NewEmbeddingBackfill(log, reposet.Movie, clients.Voyage, clients.Vectors, cfg.Retrieval.Namespace),
	}, nil
}
