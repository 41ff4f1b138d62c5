package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow(1) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow(1) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentUsers(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Errorf("User 1 request %d should be allowed", i+1)
		}
	}
	if rl.Allow(1) {
		t.Error("User 1 should be rate limited")
	}

	if !rl.Allow(2) {
		t.Error("User 2 should not be affected by user 1's limit")
	}
}

func TestRateLimiter_InvalidConfigUsesDefaults(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, -1)
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultRateLimit {
		t.Errorf("Expected %d requests per minute, got %d", DefaultRateLimit, rl.requestsPerMinute)
	}
	if rl.burstSize != DefaultBurstSize {
		t.Errorf("Expected burst %d, got %d", DefaultBurstSize, rl.burstSize)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(60, 2)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	call := func(userID int32) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		if userID != 0 {
			req = req.WithContext(WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec
	}

	t.Run("allows within burst and sets headers", func(t *testing.T) {
		rec := call(7)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "60" {
			t.Errorf("Expected limit header 60, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("rejects once burst is used", func(t *testing.T) {
		call(7)
		rec := call(7)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("Expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("Expected Retry-After header")
		}
	})

	t.Run("skips unauthenticated requests", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			if rec := call(0); rec.Code != http.StatusOK {
				t.Errorf("Expected 200 without user, got %d", rec.Code)
			}
		}
	})
}
