package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/login", nil)
	req.RemoteAddr = "192.168.1.20:52110"
	if got := RealIP(req); got != "192.168.1.20" {
		t.Errorf("RealIP = %q, want 192.168.1.20", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 192.168.1.1")
	if got := RealIP(req); got != "203.0.113.9" {
		t.Errorf("RealIP with X-Forwarded-For = %q, want 203.0.113.9", got)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("203.0.113.9", 5, time.Minute) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	if rl.Allow("203.0.113.9", 5, time.Minute) {
		t.Error("6th attempt should be denied")
	}

	// A different caller gets its own bucket.
	if !rl.Allow("203.0.113.10", 5, time.Minute) {
		t.Error("unrelated key should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		rl.Allow("caller", 3, 10*time.Millisecond)
	}
	if rl.Allow("caller", 3, 10*time.Millisecond) {
		t.Error("should be blocked within the window")
	}

	time.Sleep(15 * time.Millisecond)

	if !rl.Allow("caller", 3, 10*time.Millisecond) {
		t.Error("should be allowed after the window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()

	rl.Allow("expired", 5, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	rl.Allow("active", 5, time.Minute)

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["expired"]; ok {
		t.Error("expired bucket should have been dropped")
	}
	if _, ok := rl.buckets["active"]; !ok {
		t.Error("active bucket should survive cleanup")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	keyFunc := func(r *http.Request) string { return "caller" }

	handler := RateLimit(rl, keyFunc, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("attempt %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("POST", "/api/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd attempt: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
