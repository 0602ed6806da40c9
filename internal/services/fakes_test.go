package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
)

type fakeGateway struct {
	mu        sync.Mutex
	embedFn   func(inputs []string) ([][]float32, error)
	rerankFn  func(query string, docs []string) ([]voyage.RerankResult, error)
	embeds    [][]string
	rerankQs  []string
	rerankDoc [][]string
}

func (f *fakeGateway) Embed(ctx context.Context, inputs []string, inputType voyage.InputType) ([][]float32, error) {
	f.mu.Lock()
	f.embeds = append(f.embeds, inputs)
	f.mu.Unlock()
	if f.embedFn != nil {
		return f.embedFn(inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{float32(len(inputs[i])), 1, 0}
	}
	return out, nil
}

// Rerank keeps the input order unless rerankFn says otherwise.
func (f *fakeGateway) Rerank(ctx context.Context, query string, docs []string) ([]voyage.RerankResult, error) {
	f.mu.Lock()
	f.rerankQs = append(f.rerankQs, query)
	f.rerankDoc = append(f.rerankDoc, docs)
	f.mu.Unlock()
	if f.rerankFn != nil {
		return f.rerankFn(query, docs)
	}
	out := make([]voyage.RerankResult, len(docs))
	for i := range docs {
		out[i] = voyage.RerankResult{Index: i, RelevanceScore: 1 - float64(i)*0.1}
	}
	return out, nil
}

// reverseRerank ranks the last document first.
func reverseRerank(query string, docs []string) ([]voyage.RerankResult, error) {
	out := make([]voyage.RerankResult, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		out = append(out, voyage.RerankResult{Index: i, RelevanceScore: float64(i + 1)})
	}
	return out, nil
}

// fakeIndex returns its matches in order, honouring a movie_id $nin filter.
type fakeIndex struct {
	mu       sync.Mutex
	matches  []vectorstore.Match
	err      error
	queries  []vectorstore.Query
	upserted []vectorstore.Vector
	ensured  []string
}

func (f *fakeIndex) Search(ctx context.Context, namespace string, q vectorstore.Query) ([]vectorstore.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	excluded := map[string]bool{}
	if cond, ok := q.Filter[PayloadMovieID].(map[string]any); ok {
		if ids, ok := cond["$nin"].([]string); ok {
			for _, id := range ids {
				excluded[id] = true
			}
		}
	}
	out := make([]vectorstore.Match, 0, len(f.matches))
	for _, m := range f.matches {
		if !excluded[m.ID] {
			out = append(out, m)
		}
	}
	if q.TopK > 0 && len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, vectors...)
	return nil
}

func (f *fakeIndex) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return nil
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, payloadIndexes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append([]string(nil), payloadIndexes...)
	return nil
}

type fixture struct {
	log       *logger.Logger
	db        *gorm.DB
	customers repos.CustomerRepo
	viewings  repos.ViewingRepo
	movies    repos.MovieRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testutil.Logger(t)
	conn, gdb := testutil.Conn(t)
	return &fixture{
		log:       log,
		db:        gdb,
		customers: repos.NewCustomerRepo(conn, log),
		viewings:  repos.NewViewingRepo(conn, log),
		movies:    repos.NewMovieRepo(conn, log),
	}
}

func (fx *fixture) movie(t *testing.T, id, plot string, embedding ...float32) *types.Movie {
	t.Helper()
	return testutil.SeedMovie(t, fx.db, &types.Movie{ID: id, Title: "Title " + id, FullPlot: plot, Embedding: embedding})
}

func (fx *fixture) customer(t *testing.T, id string, history ...types.ViewingRecord) {
	t.Helper()
	testutil.SeedCustomer(t, fx.db, id, history...)
}

func viewed(movieID string, rating int, completed bool) types.ViewingRecord {
	return types.ViewingRecord{MovieID: movieID, Rating: rating, Completed: completed, ViewedAt: time.Now().UTC()}
}
