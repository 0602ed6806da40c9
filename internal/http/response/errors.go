package response

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/ctxutil"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

const internalMessage = "Internal Server Error"

// RespondAPIError maps a service error onto the wire. Server-side failures are
// logged and replaced by an opaque message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.As(err)
	if ae == nil {
		return
	}
	if ae.Internal() {
		if log != nil {
			fields := []interface{}{
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"code", ae.Code,
				"error", err.Error(),
			}
			if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
				fields = append(fields, "request_id", td.RequestID)
			}
			log.Error("request failed", fields...)
		}
		c.JSON(ae.Status, APIError{Message: internalMessage, Code: ae.Code})
		return
	}
	c.JSON(ae.Status, APIError{Message: ae.Error(), Code: ae.Code})
}
