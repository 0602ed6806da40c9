package audience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
)

func TestCustomerRepoPushViewingUpsertsMissingCustomer(t *testing.T) {
	conn, _ := testutil.Conn(t)
	repo := NewCustomerRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	rec := types.ViewingRecord{MovieID: "m1", ViewedAt: time.Now().UTC().Truncate(time.Second), Completed: true, Rating: 1}
	if err := repo.PushViewing(dbc, "c1", rec, 50, true); err != nil {
		t.Fatalf("PushViewing: %v", err)
	}
	got, err := repo.GetByID(dbc, "c1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatalf("GetByID: customer not created")
	}
	if len(got.ViewedMovies) != 1 {
		t.Fatalf("history length: want=1 got=%d", len(got.ViewedMovies))
	}
	h := got.ViewedMovies[0]
	if h.MovieID != "m1" || !h.Completed || h.Rating != 1 || !h.ViewedAt.Equal(rec.ViewedAt) {
		t.Fatalf("history entry: got=%+v", h)
	}
}

func TestCustomerRepoPushViewingWithoutUpsert(t *testing.T) {
	conn, _ := testutil.Conn(t)
	repo := NewCustomerRepo(conn, testutil.Logger(t))
	err := repo.PushViewing(dbctx.New(context.Background()), "ghost", types.ViewingRecord{MovieID: "m1"}, 50, false)
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("PushViewing: want ErrCustomerNotFound got=%v", err)
	}
}

func TestCustomerRepoHistoryCappedMostRecentFirst(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	testutil.SeedCustomer(t, gdb, "c1")
	repo := NewCustomerRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	for i := 0; i < 51; i++ {
		rec := types.ViewingRecord{MovieID: fmt.Sprintf("m%02d", i), ViewedAt: time.Now().UTC()}
		if err := repo.PushViewing(dbc, "c1", rec, 50, false); err != nil {
			t.Fatalf("PushViewing %d: %v", i, err)
		}
	}
	got, err := repo.GetByID(dbc, "c1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.ViewedMovies) != 50 {
		t.Fatalf("history length: want=50 got=%d", len(got.ViewedMovies))
	}
	if got.ViewedMovies[0].MovieID != "m50" {
		t.Fatalf("front: want=m50 got=%s", got.ViewedMovies[0].MovieID)
	}
	if got.ViewedMovies[49].MovieID != "m01" {
		t.Fatalf("back: want=m01 got=%s", got.ViewedMovies[49].MovieID)
	}
}

func TestCustomerRepoGetByIDMissing(t *testing.T) {
	conn, _ := testutil.Conn(t)
	repo := NewCustomerRepo(conn, testutil.Logger(t))
	got, err := repo.GetByID(dbctx.New(context.Background()), "nobody")
	if err != nil || got != nil {
		t.Fatalf("GetByID: want nil,nil got=%v,%v", got, err)
	}
}

func TestViewingRepoCreateAndList(t *testing.T) {
	conn, _ := testutil.Conn(t)
	repo := NewViewingRepo(conn, testutil.Logger(t))
	dbc := dbctx.New(context.Background())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"m1", "m2", "m3"} {
		row := &types.Viewing{CustomerID: "c1", MovieID: id, ViewedAt: base.Add(time.Duration(i) * time.Hour), Rating: 1}
		if err := repo.Create(dbc, row); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if row.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Fatalf("Create: id not assigned")
		}
	}
	if err := repo.Create(dbc, &types.Viewing{CustomerID: "c2", MovieID: "m9", ViewedAt: base}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	rows, err := repo.ListByCustomer(dbc, "c1", 2)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(rows) != 2 || rows[0].MovieID != "m3" || rows[1].MovieID != "m2" {
		t.Fatalf("ListByCustomer: got=%v", rows)
	}
}
