package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/yungbote/movierec-backend/internal/platform/apierr"
)

func TestFavouriteSingleEntry(t *testing.T) {
	fx := newFixture(t)
	fx.movie(t, "A", "plot a", 1, 0)
	fx.customer(t, "c1", viewed("A", 1, true))

	fav, err := NewFavouriteSelector(fx.log, fx.customers, fx.movies).Select(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if fav.Movie.ID != "A" || fav.Score != 1.5 {
		t.Fatalf("favourite: want=A/1.5 got=%s/%v", fav.Movie.ID, fav.Score)
	}
	if _, ok := fav.Viewed["A"]; !ok || len(fav.Viewed) != 1 {
		t.Fatalf("viewed set: got=%v", fav.Viewed)
	}
}

func TestFavouriteRatingBeatsCompletion(t *testing.T) {
	fx := newFixture(t)
	fx.movie(t, "A", "plot a", 1, 0)
	fx.movie(t, "B", "plot b", 0, 1)
	fx.customer(t, "c1", viewed("B", 0, true), viewed("A", 1, false))

	fav, err := NewFavouriteSelector(fx.log, fx.customers, fx.movies).Select(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if fav.Movie.ID != "A" || fav.Score != 1 {
		t.Fatalf("favourite: want=A/1 got=%s/%v", fav.Movie.ID, fav.Score)
	}
}

func TestFavouriteTieBreaksOnSmallerID(t *testing.T) {
	fx := newFixture(t)
	fx.movie(t, "m2", "plot", 1)
	fx.movie(t, "m1", "plot", 1)
	fx.customer(t, "c1", viewed("m2", 1, true), viewed("m1", 1, true), viewed("m1", 0, false))

	sel := NewFavouriteSelector(fx.log, fx.customers, fx.movies)
	for i := 0; i < 3; i++ {
		fav, err := sel.Select(context.Background(), "c1")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if fav.Movie.ID != "m1" {
			t.Fatalf("tie-break run %d: want=m1 got=%s", i, fav.Movie.ID)
		}
		if len(fav.Viewed) != 2 {
			t.Fatalf("viewed set dedupe: want=2 got=%d", len(fav.Viewed))
		}
	}
}

func TestFavouriteNotFoundCases(t *testing.T) {
	fx := newFixture(t)
	fx.movie(t, "noemb", "plot")
	fx.customer(t, "empty")
	fx.customer(t, "dangling", viewed("ghost", 1, true))
	fx.customer(t, "unembedded", viewed("noemb", 1, true))
	sel := NewFavouriteSelector(fx.log, fx.customers, fx.movies)

	cases := map[string]string{
		"missing":    apierr.CodeNotFound,
		"empty":      apierr.CodeNoHistory,
		"dangling":   apierr.CodeMovieMissing,
		"unembedded": apierr.CodeNoFavourite,
	}
	for customer, code := range cases {
		_, err := sel.Select(context.Background(), customer)
		ae := apierr.As(err)
		if ae == nil || ae.Status != http.StatusNotFound || ae.Code != code {
			t.Fatalf("%s: want 404/%s got=%v", customer, code, err)
		}
	}

	_, err := sel.Select(context.Background(), "  ")
	if ae := apierr.As(err); ae == nil || ae.Status != http.StatusBadRequest {
		t.Fatalf("blank id: want 400 got=%v", err)
	}
}
