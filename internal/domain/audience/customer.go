package audience

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

// DefaultHistoryLimit caps Customer.ViewedMovies.
const DefaultHistoryLimit = 50

// ViewingRecord is the denormalised copy of a viewing kept on the customer, most recent first.
type ViewingRecord struct {
	MovieID   string    `json:"movieId"`
	ViewedAt  time.Time `json:"viewedAt"`
	Completed bool      `json:"completed"`
	Rating    int       `json:"rating"`
}

// Score ranks a record for favourite selection.
func (r ViewingRecord) Score() float64 {
	s := float64(r.Rating)
	if r.Completed {
		s += 0.5
	}
	return s
}

type Customer struct {
	ID           string                             `gorm:"column:id;type:text;primaryKey" json:"_id"`
	Name         *string                            `gorm:"column:name;type:text" json:"name,omitempty"`
	Email        *string                            `gorm:"column:email;type:text" json:"email,omitempty"`
	ViewedMovies datatypes.JSONSlice[ViewingRecord] `gorm:"column:viewed_movies;not null;default:'[]'" json:"viewedMovies"`
	CreatedAt    time.Time                          `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                          `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

// PushHistory puts rec at the front of history and drops the oldest entries
// beyond limit. The input slice is not modified.
func PushHistory(history []ViewingRecord, rec ViewingRecord, limit int) []ViewingRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	n := len(history) + 1
	if n > limit {
		n = limit
	}
	out := make([]ViewingRecord, 0, n)
	out = append(out, rec)
	for _, h := range history {
		if len(out) == n {
			break
		}
		out = append(out, h)
	}
	return out
}

// Favourite picks the highest scoring record; ties go to the smaller movie id.
func Favourite(history []ViewingRecord) (ViewingRecord, bool) {
	if len(history) == 0 {
		return ViewingRecord{}, false
	}
	best := history[0]
	for _, r := range history[1:] {
		bs, rs := best.Score(), r.Score()
		if rs > bs || (rs == bs && r.MovieID < best.MovieID) {
			best = r
		}
	}
	return best, true
}

// ViewedSet returns the distinct movie ids in history.
func ViewedSet(history []ViewingRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(history))
	for _, r := range history {
		out[r.MovieID] = struct{}{}
	}
	return out
}

// SortedIDs flattens a viewed set in ascending order.
func SortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
