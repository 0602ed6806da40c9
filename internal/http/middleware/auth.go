package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

const secretParam = "secret"

// AuthMiddleware guards routes with the single shared secret passed as ?secret=.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), secret: []byte(secret)}
}

// RequireSecret runs before any request validation. An unset server secret
// rejects everything.
func (am *AuthMiddleware) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.Query(secretParam)
		if len(am.secret) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), am.secret) != 1 {
			am.log.Warn("forbidden: incorrect or missing secret",
				"path", c.Request.URL.Path,
				"secret_present", got != "",
			)
			c.AbortWithStatusJSON(http.StatusForbidden, response.APIError{
				Message: "Forbidden. Must include correct secret.",
				Code:    apierr.CodeForbidden,
			})
			return
		}
		c.Next()
	}
}
