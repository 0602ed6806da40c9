package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
)

func TestMovieRepoGetByIDRoundTrip(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	testutil.SeedMovie(t, gdb, &types.Movie{
		ID:        "m1",
		Title:     "Alien",
		Year:      1979,
		Genres:    []string{"Horror", "Sci-Fi"},
		Cast:      []string{"Sigourney Weaver"},
		FullPlot:  "A crew meets a creature.",
		Embedding: []float32{0.25, 0.5},
	})
	repo := NewMovieRepo(conn, testutil.Logger(t))

	got, err := repo.GetByID(dbctx.New(context.Background()), "m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Title != "Alien" || got.Year != 1979 {
		t.Fatalf("GetByID: got=%+v", got)
	}
	if len(got.Genres) != 2 || got.Cast[0] != "Sigourney Weaver" {
		t.Fatalf("json columns: got genres=%v cast=%v", got.Genres, got.Cast)
	}
	if !got.HasEmbedding() || got.Embedding[1] != 0.5 {
		t.Fatalf("embedding: got=%v", got.Embedding)
	}
	if _, ok := got.CacheEntry(); ok {
		t.Fatalf("CacheEntry: want absent")
	}

	missing, err := repo.GetByID(dbctx.New(context.Background()), "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: want nil,nil got=%v,%v", missing, err)
	}
}

func TestMovieRepoGetByIDsKeepsRequestOrder(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	for _, id := range []string{"a", "b", "c"} {
		testutil.SeedMovie(t, gdb, &types.Movie{ID: id, Title: id})
	}
	repo := NewMovieRepo(conn, testutil.Logger(t))
	got, err := repo.GetByIDs(dbctx.New(context.Background()), []string{"c", "x", "a", "c"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		ids := make([]string, 0, len(got))
		for _, m := range got {
			ids = append(ids, m.ID)
		}
		t.Fatalf("GetByIDs order: want=[c a] got=%v", ids)
	}
}

func TestMovieRepoSimilarCandidates(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "fav", Title: "Fav"})
	repo := NewMovieRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.SetSimilarCandidates(dbc, "fav", []string{"x", "y"}, at); err != nil {
		t.Fatalf("SetSimilarCandidates: %v", err)
	}
	got, _ := repo.GetByID(dbc, "fav")
	entry, ok := got.CacheEntry()
	if !ok {
		t.Fatalf("CacheEntry: want present")
	}
	if len(entry.Candidates) != 2 || entry.Candidates[0] != "x" || !entry.LastUpdated.Equal(at) {
		t.Fatalf("CacheEntry: got=%+v", entry)
	}
}

func TestMovieRepoListForEmbeddingAndStaleGuard(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "a", FullPlot: "plot a"})
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "b", FullPlot: "plot b", Embedding: []float32{1}})
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "c", FullPlot: "plot c"})
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "d"})
	repo := NewMovieRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	page, err := repo.ListForEmbedding(dbc, "", 10, false)
	if err != nil {
		t.Fatalf("ListForEmbedding: %v", err)
	}
	if len(page) != 2 || page[0].ID != "a" || page[1].ID != "c" {
		t.Fatalf("ListForEmbedding: got=%d rows", len(page))
	}
	page, _ = repo.ListForEmbedding(dbc, "a", 10, true)
	if len(page) != 2 || page[0].ID != "b" || page[1].ID != "c" {
		t.Fatalf("ListForEmbedding force after a: got=%d rows", len(page))
	}

	ok, err := repo.SetEmbeddingIfPlotUnchanged(dbc, "a", "old plot", []float32{0.1})
	if err != nil || ok {
		t.Fatalf("stale plot: want false,nil got=%v,%v", ok, err)
	}
	ok, err = repo.SetEmbeddingIfPlotUnchanged(dbc, "a", "plot a", []float32{0.1, 0.2})
	if err != nil || !ok {
		t.Fatalf("current plot: want true,nil got=%v,%v", ok, err)
	}
	got, _ := repo.GetByID(dbc, "a")
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding not stored: %v", got.Embedding)
	}
}

func TestMovieRepoUpsertReplaces(t *testing.T) {
	conn, _ := testutil.Conn(t)
	repo := NewMovieRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())
	if err := repo.Upsert(dbc, []*types.Movie{{ID: "m1", Title: "Old", FullPlot: "p"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, []*types.Movie{{ID: "m1", Title: "New", FullPlot: "p"}}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, _ := repo.GetByID(dbc, "m1")
	if got.Title != "New" || got.Type != types.TypeMovie {
		t.Fatalf("Upsert: got=%+v", got)
	}
}
