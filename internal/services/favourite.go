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

// Favourite is the customer's highest scoring viewed movie together with the
// set of everything they have viewed.
type Favourite struct {
	Movie  *types.Movie
	Score  float64
	Viewed map[string]struct{}
}

type FavouriteSelector interface {
	Select(ctx context.Context, customerID string) (*Favourite, error)
}

type favouriteSelector struct {
	log       *logger.Logger
	customers repos.CustomerRepo
	movies    repos.MovieRepo
}

func NewFavouriteSelector(log *logger.Logger, customers repos.CustomerRepo, movies repos.MovieRepo) FavouriteSelector {
	return &favouriteSelector{
		log:       log.With("service", "FavouriteSelector"),
		customers: customers,
		movies:    movies,
	}
}

func (s *favouriteSelector) Select(ctx context.Context, customerID string) (*Favourite, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, apierr.Validation("customerId is required")
	}
	dbc := dbctx.New(ctx)

	customer, err := s.customers.GetByID(dbc, customerID)
	if err != nil {
		return nil, apierr.Storage("load customer", err)
	}
	if customer == nil {
		return nil, apierr.NotFound(apierr.CodeNotFound, "Customer not found or no viewed movies")
	}
	best, ok := types.Favourite(customer.ViewedMovies)
	if !ok {
		return nil, apierr.NotFound(apierr.CodeNoHistory, "Customer not found or no viewed movies")
	}

	movie, err := s.movies.GetByID(dbc, best.MovieID)
	if err != nil {
		return nil, apierr.Storage("load favourite movie", err)
	}
	if movie == nil {
		s.log.Warn("favourite movie missing from catalog", "customer_id", customerID, "movie_id", best.MovieID)
		return nil, apierr.NotFound(apierr.CodeMovieMissing, "Favourite movie not found")
	}
	if !movie.HasEmbedding() {
		s.log.Warn("favourite movie has no embedding", "customer_id", customerID, "movie_id", best.MovieID)
		return nil, apierr.NotFound(apierr.CodeNoFavourite, "Favourite movie has no embedding")
	}

	return &Favourite{
		Movie:  movie,
		Score:  best.Score(),
		Viewed: types.ViewedSet(customer.ViewedMovies),
	}, nil
}
