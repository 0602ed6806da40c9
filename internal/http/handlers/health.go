package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	localDev bool
}

func NewHealthHandler(localDev bool) *HealthHandler { return &HealthHandler{localDev: localDev} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /
func (h *HealthHandler) Status(c *gin.Context) {
	where := "production"
	if h.localDev {
		where = "localhost"
	}
	c.JSON(http.StatusOK, gin.H{"status": "Running on " + where})
}
