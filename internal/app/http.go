package app

import (
	apphttp "github.com/yungbote/movierec-backend/internal/http"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) apphttp.RouterConfig {
	return apphttp.RouterConfig{
		Log:                   log,
		ServiceName:           cfg.Service.Name,
		CORSOrigins:           []string{cfg.ProductionClientURL},
		Metrics:               metrics,
		AuthMiddleware:        middleware.Auth,
		HealthHandler:         handlers.Health,
		ViewingHandler:        handlers.Viewing,
		RecommendationHandler: handlers.Recommendation,
		PlotHandler:           handlers.Plot,
		MovieHandler:          handlers.Movie,
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *apphttp.Server {
	log.Info("Wiring http server...")
	return apphttp.NewServer(log, wireRouterConfig(log, cfg, handlers, middleware, metrics), cfg.Listen)
}
