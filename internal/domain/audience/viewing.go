package audience

import (
	"time"

	"github.com/google/uuid"
)

// Viewing is an insert-only audit row, one per recorded viewing.
type Viewing struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	CustomerID string    `gorm:"column:customer_id;type:text;not null;index" json:"customerId"`
	MovieID    string    `gorm:"column:movie_id;type:text;not null;index" json:"movieId"`
	ViewedAt   time.Time `gorm:"column:viewed_at;not null" json:"viewedAt"`
	Completed  bool      `gorm:"column:completed;not null;default:false" json:"completed"`
	Rating     int       `gorm:"column:rating;not null;default:0" json:"rating"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (Viewing) TableName() string { return "viewings" }

func ValidRating(r int) bool {
	return r == -1 || r == 0 || r == 1
}

func (v Viewing) Record() ViewingRecord {
	return ViewingRecord{
		MovieID:   v.MovieID,
		ViewedAt:  v.ViewedAt,
		Completed: v.Completed,
		Rating:    v.Rating,
	}
}
