package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/services"
)

type RecommendationHandler struct {
	log  *logger.Logger
	recs services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recs services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{log: log.With("handler", "RecommendationHandler"), recs: recs}
}

// GET /recommendation?customerId=
func (h *RecommendationHandler) GetRecommendation(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		response.RespondAPIError(c, h.log, apierr.Validation("customerId is required"))
		return
	}
	out, err := h.recs.Recommend(c.Request.Context(), customerID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
