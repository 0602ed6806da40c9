package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/services"
)

type MovieHandler struct {
	log    *logger.Logger
	movies services.MovieService
}

func NewMovieHandler(log *logger.Logger, movies services.MovieService) *MovieHandler {
	return &MovieHandler{log: log.With("handler", "MovieHandler"), movies: movies}
}

// GET /movie?id=&embedding=true
func (h *MovieHandler) GetMovie(c *gin.Context) {
	withEmbedding, _ := strconv.ParseBool(c.Query("embedding"))
	m, err := h.movies.Get(c.Request.Context(), c.Query("id"), withEmbedding)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, m)
}
