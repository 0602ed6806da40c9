package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/platform/ctxutil"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// quietRoutes are probed constantly and only logged at debug.
var quietRoutes = map[string]bool{
	"/":            true,
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one line per request. The secret query parameter is
// never logged because only the matched route template is recorded.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		for _, q := range [][2]string{{"customerId", "customer_id"}, {"id", "movie_id"}} {
			if v := c.Query(q[0]); v != "" {
				kv = append(kv, q[1], v)
			}
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", kv...)
		case status >= 400:
			log.Warn("HTTP request", kv...)
		case quietRoutes[route]:
			log.Debug("HTTP request", kv...)
		default:
			log.Info("HTTP request", kv...)
		}
	}
}
