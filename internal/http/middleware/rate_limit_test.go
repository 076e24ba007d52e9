package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/goleak"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/login", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	r := limitedRouter(NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		if code := hit(r, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: want=200 got=%d", i, code)
		}
	}
	if code := hit(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded: want=429 got=%d", code)
	}
	if code := hit(r, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other ip should have its own bucket, got=%d", code)
	}
}

func TestRateLimiterSweepDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiterFor("10.0.0.1")
	now = now.Add(visitorTTL + time.Second)
	rl.limiterFor("10.0.0.2")
	rl.sweep()

	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Fatalf("idle visitor should be swept")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Fatalf("recent visitor should be kept")
	}
}

func TestRateLimiterSweeperStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx, cancel := context.WithCancel(context.Background())
	NewRateLimiter(1, 1).StartSweeper(ctx)
	cancel()
	time.Sleep(10 * time.Millisecond)
}
