package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

func respond(t *testing.T, err error) (int, APIError) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	RespondAPIError(c, logger.NewNop(), err)

	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestRespondAPIErrorClientErrorsAreVisible(t *testing.T) {
	status, body := respond(t, apierr.NotFound(apierr.CodeNoRecommend, "No recommendation available"))
	if status != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", status)
	}
	if body.Message != "No recommendation available" || body.Code != apierr.CodeNoRecommend {
		t.Fatalf("body: got=%+v", body)
	}
}

func TestRespondAPIErrorHidesInternalDetail(t *testing.T) {
	status, body := respond(t, apierr.Storage("insert viewing", errors.New("pq: password authentication failed")))
	if status != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", status)
	}
	if body.Message != "Internal Server Error" || body.Code != apierr.CodeStorage {
		t.Fatalf("body: got=%+v", body)
	}

	status, body = respond(t, errors.New("plain failure"))
	if status != http.StatusInternalServerError || body.Code != apierr.CodeInternal || body.Message != "Internal Server Error" {
		t.Fatalf("unclassified: got status=%d body=%+v", status, body)
	}
}
