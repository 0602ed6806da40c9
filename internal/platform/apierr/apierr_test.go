package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsClassifiesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("recommend: %w", NotFound(CodeNoRecommend, "no recommendation"))
	got := As(wrapped)
	if got.Status != http.StatusNotFound || got.Code != CodeNoRecommend {
		t.Fatalf("As: want=404/%s got=%d/%s", CodeNoRecommend, got.Status, got.Code)
	}
	if !IsNotFound(wrapped) {
		t.Fatalf("IsNotFound: expected true")
	}

	plain := As(errors.New("boom"))
	if plain.Status != http.StatusInternalServerError || !plain.Internal() {
		t.Fatalf("As(plain): want internal 500 got=%d", plain.Status)
	}
}

func TestUpstreamAndStorageUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	up := Upstream("rerank", cause)
	if !errors.Is(up, cause) {
		t.Fatalf("Upstream: expected cause to be wrapped")
	}
	if up.Code != CodeUpstream || !up.Internal() {
		t.Fatalf("Upstream: unexpected classification %+v", up)
	}
	st := Storage("insert viewing", cause)
	if st.Code != CodeStorage || st.Status != http.StatusInternalServerError {
		t.Fatalf("Storage: unexpected classification %+v", st)
	}
	if Validation("x").Internal() || Forbidden("x").Internal() {
		t.Fatalf("4xx errors must not be internal")
	}
}
