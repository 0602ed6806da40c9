package audience

import (
	"fmt"
	"testing"
	"time"
)

func TestScore(t *testing.T) {
	cases := []struct {
		rec  ViewingRecord
		want float64
	}{
		{ViewingRecord{Rating: 1, Completed: true}, 1.5},
		{ViewingRecord{Rating: 1}, 1},
		{ViewingRecord{Rating: 0, Completed: true}, 0.5},
		{ViewingRecord{Rating: -1, Completed: true}, -0.5},
		{ViewingRecord{Rating: -1}, -1},
	}
	for _, tc := range cases {
		if got := tc.rec.Score(); got != tc.want {
			t.Fatalf("Score(%+v): want=%v got=%v", tc.rec, tc.want, got)
		}
	}
}

func TestFavouriteSingleEntry(t *testing.T) {
	fav, ok := Favourite([]ViewingRecord{{MovieID: "A", Rating: 1, Completed: true}})
	if !ok || fav.MovieID != "A" || fav.Score() != 1.5 {
		t.Fatalf("Favourite: got=%+v ok=%v", fav, ok)
	}
}

func TestFavouriteRatingBeatsCompletion(t *testing.T) {
	fav, _ := Favourite([]ViewingRecord{
		{MovieID: "B", Rating: 0, Completed: true},
		{MovieID: "A", Rating: 1, Completed: false},
	})
	if fav.MovieID != "A" {
		t.Fatalf("Favourite: want=A got=%s", fav.MovieID)
	}
}

func TestFavouriteTieBreaksOnSmallerID(t *testing.T) {
	history := []ViewingRecord{
		{MovieID: "m3", Rating: 1},
		{MovieID: "m1", Rating: 1},
		{MovieID: "m2", Rating: 1},
	}
	for i := 0; i < 3; i++ {
		fav, _ := Favourite(history)
		if fav.MovieID != "m1" {
			t.Fatalf("Favourite: want=m1 got=%s", fav.MovieID)
		}
		history = append(history[1:], history[0])
	}
}

func TestFavouriteEmpty(t *testing.T) {
	if _, ok := Favourite(nil); ok {
		t.Fatalf("Favourite: want none on empty history")
	}
}

func TestPushHistoryCapsAndEvictsOldest(t *testing.T) {
	var history []ViewingRecord
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 51; i++ {
		history = PushHistory(history, ViewingRecord{
			MovieID:  fmt.Sprintf("m%02d", i),
			ViewedAt: base.Add(time.Duration(i) * time.Minute),
		}, DefaultHistoryLimit)
	}
	if len(history) != 50 {
		t.Fatalf("len: want=50 got=%d", len(history))
	}
	if history[0].MovieID != "m50" {
		t.Fatalf("front: want=m50 got=%s", history[0].MovieID)
	}
	if history[49].MovieID != "m01" {
		t.Fatalf("back: want=m01 got=%s", history[49].MovieID)
	}
	for _, h := range history {
		if h.MovieID == "m00" {
			t.Fatalf("oldest entry not evicted")
		}
	}
}

func TestPushHistoryDoesNotMutateInput(t *testing.T) {
	in := []ViewingRecord{{MovieID: "a"}, {MovieID: "b"}}
	out := PushHistory(in, ViewingRecord{MovieID: "c"}, 2)
	if len(out) != 2 || out[0].MovieID != "c" || out[1].MovieID != "a" {
		t.Fatalf("PushHistory: got=%+v", out)
	}
	if in[0].MovieID != "a" || in[1].MovieID != "b" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestViewedSetDeduplicates(t *testing.T) {
	set := ViewedSet([]ViewingRecord{{MovieID: "b"}, {MovieID: "a"}, {MovieID: "b"}})
	ids := SortedIDs(set)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("SortedIDs: got=%v", ids)
	}
}

func TestValidRating(t *testing.T) {
	for _, r := range []int{-1, 0, 1} {
		if !ValidRating(r) {
			t.Fatalf("ValidRating(%d): want=true", r)
		}
	}
	for _, r := range []int{-2, 2, 5} {
		if ValidRating(r) {
			t.Fatalf("ValidRating(%d): want=false", r)
		}
	}
}
