package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		configured []string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"dev default vite", nil, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
		{"dev default expo", nil, "http://127.0.0.1:8081", http.StatusNoContent, "http://127.0.0.1:8081"},
		{"configured origin", []string{"https://app.cesizen.fr"}, "https://app.cesizen.fr", http.StatusNoContent, "https://app.cesizen.fr"},
		{"unlisted origin", []string{"https://app.cesizen.fr"}, "http://localhost:5173", http.StatusForbidden, ""},
		{"wildcard", []string{"*"}, "https://anywhere.example", http.StatusNoContent, "*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.configured))
			r.POST("/api/login", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSCredentials(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowCredentials)
	assert.False(t, corsConfig([]string{"*"}).AllowCredentials)
	assert.Contains(t, corsConfig(nil).ExposeHeaders, HeaderRequestID)
}
