package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/observability"
)

func TestMetricsRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.Init(nil, true)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/contents/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET(MetricsPath, gin.WrapF(m.WriteHTTP))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/contents/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, MetricsPath, nil))

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `route="/api/contents/:id"`) {
		t.Fatalf("route template missing:\n%s", out)
	}
	if !strings.Contains(out, `route="unmatched"`) {
		t.Fatalf("unmatched route missing:\n%s", out)
	}
	if strings.Contains(out, `route="/metrics"`) {
		t.Fatalf("scrape endpoint should not be counted")
	}
}
