package domain

import (
	"github.com/yungbote/movierec-backend/internal/domain/audience"
	"github.com/yungbote/movierec-backend/internal/domain/catalog"
)

type (
	Customer        = audience.Customer
	ViewingRecord   = audience.ViewingRecord
	Viewing         = audience.Viewing
	Movie           = catalog.Movie
	SimilarityEntry = catalog.SimilarityEntry
)

const (
	DefaultHistoryLimit = audience.DefaultHistoryLimit
	TypeMovie           = catalog.TypeMovie
)

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&audience.Customer{},
		&audience.Viewing{},
		&catalog.Movie{},
	}
}

var (
	PushHistory = audience.PushHistory
	Favourite   = audience.Favourite
	ViewedSet   = audience.ViewedSet
	SortedIDs   = audience.SortedIDs
	ValidRating = audience.ValidRating
)
