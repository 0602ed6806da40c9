package app

import (
	httpH "github.com/yungbote/movierec-backend/internal/http/handlers"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Viewing        *httpH.ViewingHandler
	Recommendation *httpH.RecommendationHandler
	Plot           *httpH.PlotHandler
	Movie          *httpH.MovieHandler
}

func wireHandlers(log *logger.Logger, cfg Config, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(cfg.Listen.LocalDev),
		Viewing:        httpH.NewViewingHandler(log, svc.Viewing),
		Recommendation: httpH.NewRecommendationHandler(log, svc.Recommendation),
		Plot:           httpH.NewPlotHandler(log, svc.PlotSearch),
		Movie:          httpH.NewMovieHandler(log, svc.Movies),
	}
}
