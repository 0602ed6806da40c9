package app

import (
	"github.com/yungbote/movierec-backend/internal/data/db"
	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type Repos struct {
	Customer repos.CustomerRepo
	Viewing  repos.ViewingRepo
	Movie    repos.MovieRepo
}

func wireRepos(conn db.Conn, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Customer: repos.NewCustomerRepo(conn, log),
		Viewing:  repos.NewViewingRepo(conn, log),
		Movie:    repos.NewMovieRepo(conn, log),
	}
}
