package services

import (
	"context"

	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
)

// EmbeddingGateway embeds text and reranks documents. *voyage.Client implements it.
type EmbeddingGateway interface {
	Embed(ctx context.Context, inputs []string, inputType voyage.InputType) ([][]float32, error)
	Rerank(ctx context.Context, query string, documents []string) ([]voyage.RerankResult, error)
}

// VectorIndex is the nearest-neighbour index over movie plot embeddings.
type VectorIndex = vectorstore.Store

// Payload keys written alongside every movie vector.
const (
	PayloadType    = "type"
	PayloadMovieID = "movie_id"
)

// RetrievalConfig is shared by recommendation and plot search.
type RetrievalConfig struct {
	Namespace     string  `yaml:"namespace"`
	TopK          int     `yaml:"top_k"`
	NumCandidates int     `yaml:"num_candidates"`
	Threshold     float64 `yaml:"threshold"`
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Namespace:     "movies",
		TopK:          10,
		NumCandidates: 100,
		Threshold:     0.8,
	}
}

func (c RetrievalConfig) withDefaults() RetrievalConfig {
	d := DefaultRetrievalConfig()
	if c.Namespace == "" {
		c.Namespace = d.Namespace
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.NumCandidates < c.TopK {
		c.NumCandidates = d.NumCandidates
		if c.NumCandidates < c.TopK {
			c.NumCandidates = c.TopK
		}
	}
	return c
}
