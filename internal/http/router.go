package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/movierec-backend/internal/http/handlers"
	httpMW "github.com/yungbote/movierec-backend/internal/http/middleware"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler         *httpH.HealthHandler
	ViewingHandler        *httpH.ViewingHandler
	RecommendationHandler *httpH.RecommendationHandler
	PlotHandler           *httpH.PlotHandler
	MovieHandler          *httpH.MovieHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Status)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireSecret())
		} else {
			// no auth wired means nothing behind it is reachable
			protected.Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) })
		}

		if cfg.ViewingHandler != nil {
			protected.POST("/viewing", cfg.ViewingHandler.PostViewing)
		}
		if cfg.RecommendationHandler != nil {
			protected.GET("/recommendation", cfg.RecommendationHandler.GetRecommendation)
		}
		if cfg.PlotHandler != nil {
			protected.POST("/find-by-plot", cfg.PlotHandler.FindByPlot)
		}
		if cfg.MovieHandler != nil {
			protected.GET("/movie", cfg.MovieHandler.GetMovie)
		}
	}

	return r
}
