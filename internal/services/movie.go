package services

import (
	"context"
	"strings"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type MovieService interface {
	Get(ctx context.Context, id string, includeEmbedding bool) (*types.Movie, error)
}

type movieService struct {
	log    *logger.Logger
	movies repos.MovieRepo
}

func NewMovieService(log *logger.Logger, movies repos.MovieRepo) MovieService {
	return &movieService{log: log.With("service", "MovieService"), movies: movies}
}

func (s *movieService) Get(ctx context.Context, id string, includeEmbedding bool) (*types.Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.Validation("id is required")
	}
	m, err := s.movies.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, apierr.Storage("load movie", err)
	}
	if m == nil {
		return nil, apierr.NotFound(apierr.CodeMovieMissing, "Movie not found")
	}
	if includeEmbedding {
		return m, nil
	}
	out := m.Public()
	return &out, nil
}
