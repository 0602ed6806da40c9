package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/ctxutil"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

func secretRouter(secret string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.Use(NewAuthMiddleware(logger.NewNop(), secret).RequireSecret())
	r.GET("/movie", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return r, &reached
}

func TestRequireSecret(t *testing.T) {
	cases := []struct {
		name       string
		configured string
		query      string
		want       int
	}{
		{"correct", "s3cret", "?secret=s3cret", http.StatusOK},
		{"wrong", "s3cret", "?secret=nope", http.StatusForbidden},
		{"prefix", "s3cret", "?secret=s3cre", http.StatusForbidden},
		{"missing", "s3cret", "", http.StatusForbidden},
		{"server unset", "", "?secret=", http.StatusForbidden},
	}
	for _, tc := range cases {
		r, reached := secretRouter(tc.configured)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movie"+tc.query, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: status want=%d got=%d", tc.name, tc.want, rec.Code)
		}
		if *reached != (tc.want == http.StatusOK) {
			t.Fatalf("%s: handler reached=%v", tc.name, *reached)
		}
		if tc.want == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"message":"Forbidden. Must include correct secret."`) {
			t.Fatalf("%s: body=%s", tc.name, rec.Body.String())
		}
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var td *ctxutil.TraceData
	r.GET("/", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if td == nil || td.RequestID != "req-1" || td.TraceID == "" {
		t.Fatalf("trace data: got=%+v", td)
	}
	if rec.Header().Get(headerRequestID) != "req-1" || rec.Header().Get(headerTraceID) != td.TraceID {
		t.Fatalf("response headers: got=%v", rec.Header())
	}
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/movie", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET(metricsPath, func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/movie", "/movie", "/metrics", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	n, err := testutil.GatherAndCount(m.Registry(), "movierec_api_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// one series for /movie 200 and one for unmatched 404
	if n != 2 {
		t.Fatalf("series: want=2 got=%d", n)
	}
}
