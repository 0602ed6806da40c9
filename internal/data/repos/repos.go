package repos

import (
	"github.com/yungbote/movierec-backend/internal/data/repos/audience"
	"github.com/yungbote/movierec-backend/internal/data/repos/catalog"
)

type CustomerRepo = audience.CustomerRepo
type ViewingRepo = audience.ViewingRepo
type MovieRepo = catalog.MovieRepo

var (
	NewCustomerRepo = audience.NewCustomerRepo
	NewViewingRepo  = audience.NewViewingRepo
	NewMovieRepo    = catalog.NewMovieRepo

	ErrCustomerNotFound = audience.ErrCustomerNotFound
)
