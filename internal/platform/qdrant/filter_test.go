package qdrant

import (
	"errors"
	"testing"
)

func TestTranslateFilterEqualityAndIn(t *testing.T) {
	got, err := translateFilter(map[string]any{
		"type": "movie",
		"genre": map[string]any{
			"$in": []any{"Drama", "Comedy"},
		},
	})
	if err != nil {
		t.Fatalf("translateFilter: %v", err)
	}
	if len(got.Must) != 2 {
		t.Fatalf("must length: want=2 got=%d", len(got.Must))
	}

	typeCond := findConditionByKey(got.Must, "type")
	if typeCond == nil {
		t.Fatalf("missing type condition")
	}
	if m, ok := typeCond["match"].(map[string]any); !ok || m["value"] != "movie" {
		t.Fatalf("type match: got=%v", typeCond["match"])
	}

	genreCond := findConditionByKey(got.Must, "genre")
	if genreCond == nil {
		t.Fatalf("missing genre condition")
	}
	anyVals, _ := genreCond["match"].(map[string]any)["any"].([]any)
	if len(anyVals) != 2 || anyVals[0] != "Drama" || anyVals[1] != "Comedy" {
		t.Fatalf("genre any values: got=%v", anyVals)
	}
}

func TestTranslateFilterNinBecomesMustNot(t *testing.T) {
	got, err := translateFilter(map[string]any{
		"movie_id": map[string]any{"$nin": []string{"m1", "m2"}},
	})
	if err != nil {
		t.Fatalf("translateFilter: %v", err)
	}
	if len(got.Must) != 0 {
		t.Fatalf("must length: want=0 got=%d", len(got.Must))
	}
	cond := findConditionByKey(got.MustNot, "movie_id")
	if cond == nil {
		t.Fatalf("missing movie_id must_not condition")
	}
	anyVals, _ := cond["match"].(map[string]any)["any"].([]any)
	if len(anyVals) != 2 || anyVals[0] != "m1" || anyVals[1] != "m2" {
		t.Fatalf("movie_id any values: got=%v", anyVals)
	}
}

func TestTranslateFilterEmptyNinIsNoop(t *testing.T) {
	got, err := translateFilter(map[string]any{
		"movie_id": map[string]any{"$nin": []any{}},
	})
	if err != nil {
		t.Fatalf("translateFilter: %v", err)
	}
	if len(got.asMap()) != 0 {
		t.Fatalf("want empty filter, got=%v", got.asMap())
	}
}

func TestTranslateFilterEmptyInRejected(t *testing.T) {
	_, err := translateFilter(map[string]any{
		"movie_id": map[string]any{"$in": []any{}},
	})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("want validation error, got=%v", err)
	}
}

func TestTranslateFilterLogicalOperators(t *testing.T) {
	got, err := translateFilter(map[string]any{
		"$or": []any{
			map[string]any{"type": "movie"},
			map[string]any{"type": "series"},
		},
		"$not": map[string]any{"rated": "R"},
	})
	if err != nil {
		t.Fatalf("translateFilter: %v", err)
	}
	if len(got.Should) != 2 {
		t.Fatalf("should length: want=2 got=%d", len(got.Should))
	}
	if len(got.MustNot) != 1 {
		t.Fatalf("must_not length: want=1 got=%d", len(got.MustNot))
	}
}

func TestTranslateFilterUnsupportedOperator(t *testing.T) {
	_, err := translateFilter(map[string]any{
		"year": map[string]any{"$gt": 2000},
	})
	if err == nil {
		t.Fatalf("translateFilter: expected error, got nil")
	}
	var oe *OperationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if oe.Code != OperationErrorUnsupportedFilter {
		t.Fatalf("error code: want=%q got=%q", OperationErrorUnsupportedFilter, oe.Code)
	}
}

func findConditionByKey(items []any, key string) map[string]any {
	for _, raw := range items {
		cond, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if k, _ := cond["key"].(string); k == key {
			return cond
		}
	}
	return nil
}
