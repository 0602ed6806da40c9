package app

import (
	"context"
	"time"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
)

type instrumentedVectorStore struct {
	inner   vectorstore.Store
	metrics *observability.Metrics
}

// managedVectorStore keeps EnsureCollection visible through the wrapper.
type managedVectorStore struct {
	*instrumentedVectorStore
	manager vectorstore.CollectionManager
}

func instrumentVectorStore(inner vectorstore.Store) vectorstore.Store {
	if inner == nil {
		return nil
	}
	s := &instrumentedVectorStore{inner: inner, metrics: observability.Current()}
	if cm, ok := inner.(vectorstore.CollectionManager); ok {
		return &managedVectorStore{instrumentedVectorStore: s, manager: cm}
	}
	return s
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, namespace, vectors)
	s.metrics.ObserveVectorStore("upsert", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Search(ctx context.Context, namespace string, q vectorstore.Query) ([]vectorstore.Match, error) {
	start := time.Now()
	out, err := s.inner.Search(ctx, namespace, q)
	s.metrics.ObserveVectorStore("search", err, time.Since(start))
	return out, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	start := time.Now()
	err := s.inner.DeleteIDs(ctx, namespace, ids)
	s.metrics.ObserveVectorStore("delete_ids", err, time.Since(start))
	return err
}

func (s *managedVectorStore) EnsureCollection(ctx context.Context, payloadIndexes []string) error {
	start := time.Now()
	err := s.manager.EnsureCollection(ctx, payloadIndexes)
	s.metrics.ObserveVectorStore("ensure_collection", err, time.Since(start))
	return err
}
