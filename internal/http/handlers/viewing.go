package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/services"
)

type viewingRequest struct {
	CustomerID flexID   `json:"customerId"`
	MovieID    flexID   `json:"movieId"`
	ViewedAt   flexTime `json:"viewedAt"`
	Completed  bool     `json:"completed"`
	Rating     int      `json:"rating"`
}

type ViewingHandler struct {
	log      *logger.Logger
	viewings services.ViewingService
}

func NewViewingHandler(log *logger.Logger, viewings services.ViewingService) *ViewingHandler {
	return &ViewingHandler{log: log.With("handler", "ViewingHandler"), viewings: viewings}
}

// POST /viewing
// Echoes the request body on success.
func (h *ViewingHandler) PostViewing(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	var req viewingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	if req.CustomerID == "" {
		response.RespondAPIError(c, h.log, apierr.Validation("Bad Request: Missing customerId"))
		return
	}

	_, err = h.viewings.Record(c.Request.Context(), services.RecordViewingInput{
		CustomerID: string(req.CustomerID),
		MovieID:    string(req.MovieID),
		ViewedAt:   req.ViewedAt.Time,
		Completed:  req.Completed,
		Rating:     req.Rating,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
