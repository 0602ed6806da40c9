package catalog

import (
	"time"

	"gorm.io/datatypes"
)

const TypeMovie = "movie"

// Movie is a catalog document. Embedding and the similarity cache columns are
// optional; use HasEmbedding and CacheEntry to check for them.
type Movie struct {
	ID        string                      `gorm:"column:id;type:text;primaryKey" json:"_id"`
	Type      string                      `gorm:"column:type;type:text;not null;default:'movie';index" json:"type"`
	Title     string                      `gorm:"column:title;type:text;not null;default:''" json:"title"`
	Year      int                         `gorm:"column:year" json:"year,omitempty"`
	Genres    datatypes.JSONSlice[string] `gorm:"column:genres;not null;default:'[]'" json:"genres"`
	Cast      datatypes.JSONSlice[string] `gorm:"column:cast;not null;default:'[]'" json:"cast"`
	Directors datatypes.JSONSlice[string] `gorm:"column:directors;not null;default:'[]'" json:"directors"`
	Rated     string                      `gorm:"column:rated;type:text" json:"rated,omitempty"`
	Poster    string                      `gorm:"column:poster;type:text" json:"poster,omitempty"`
	FullPlot  string                      `gorm:"column:fullplot;type:text;not null;default:''" json:"fullplot"`

	// Embedding is stored as a JSON array; an empty array means "not embedded yet".
	Embedding datatypes.JSONSlice[float32] `gorm:"column:fullplot_embedding;not null;default:'[]'" json:"fullplot_embedding,omitempty"`

	SimilarCandidates datatypes.JSONSlice[string] `gorm:"column:similar_candidates;not null;default:'[]'" json:"-"`
	SimilarUpdatedAt  *time.Time                  `gorm:"column:similar_updated_at" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"-"`
}

func (Movie) TableName() string { return "movies" }

func (m *Movie) HasEmbedding() bool {
	return m != nil && len(m.Embedding) > 0
}

// Public returns a copy safe to send to clients: no embedding.
func (m Movie) Public() Movie {
	m.Embedding = nil
	return m
}

// SimilarityEntry is the cached nearest-neighbour list of a favourite movie.
type SimilarityEntry struct {
	Candidates  []string  `json:"candidates"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// CacheEntry reports the cache columns when both are populated.
func (m *Movie) CacheEntry() (SimilarityEntry, bool) {
	if m == nil || m.SimilarUpdatedAt == nil || len(m.SimilarCandidates) == 0 {
		return SimilarityEntry{}, false
	}
	return SimilarityEntry{
		Candidates:  append([]string(nil), m.SimilarCandidates...),
		LastUpdated: *m.SimilarUpdatedAt,
	}, true
}
