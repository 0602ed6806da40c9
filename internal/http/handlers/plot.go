package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/services"
)

type PlotHandler struct {
	log    *logger.Logger
	search services.PlotSearchService
}

func NewPlotHandler(log *logger.Logger, search services.PlotSearchService) *PlotHandler {
	return &PlotHandler{log: log.With("handler", "PlotHandler"), search: search}
}

// POST /find-by-plot
// The plot comes from the JSON body, falling back to ?plot=.
func (h *PlotHandler) FindByPlot(c *gin.Context) {
	var body struct {
		Plot string `json:"plot"`
	}
	raw, err := c.GetRawData()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
			return
		}
	}
	plot := body.Plot
	if strings.TrimSpace(plot) == "" {
		plot = c.Query("plot")
	}

	out, err := h.search.SearchByPlot(c.Request.Context(), plot)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
