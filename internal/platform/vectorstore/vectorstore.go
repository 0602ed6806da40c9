package vectorstore

import "context"

// Vector is a point written to the index. Metadata is stored as filterable payload.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a search hit; Score is a similarity where higher is better.
type Match struct {
	ID    string
	Score float64
}

// Query describes a nearest-neighbour search.
//
// Filter uses a small Mongo-like dialect understood by every backend:
// scalar equality, {"$eq"}, {"$ne"}, {"$in"}, {"$nin"}, and top-level $and/$or/$not.
// NumCandidates asks the index to explore a wider candidate set than TopK.
type Query struct {
	Vector        []float32
	TopK          int
	NumCandidates int
	Filter        map[string]any
}

type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Search(ctx context.Context, namespace string, q Query) ([]Match, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

// CollectionManager is implemented by stores that can provision their own collection.
type CollectionManager interface {
	EnsureCollection(ctx context.Context, payloadIndexes []string) error
}
