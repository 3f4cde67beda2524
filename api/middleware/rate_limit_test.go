package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plazagoods/storefront-backend/pkg/config"
)

type fakeLimiter struct {
	counts map[string]int64
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64)}
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func TestCartRateLimitBlocksOverLimit(t *testing.T) {
	cfg := config.RateLimitConfig{CartWindow: time.Minute, CartLimit: 2}
	limiter := newFakeLimiter()
	handler := CartRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200 got %d", i, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestCartRateLimitScopesPerUser(t *testing.T) {
	cfg := config.RateLimitConfig{CartWindow: time.Minute, CartLimit: 1}
	limiter := newFakeLimiter()
	handler := CartRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, user := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("user %s expected 200 got %d", user, resp.Code)
		}
	}
}

func TestCartRateLimitDisabledWithoutStore(t *testing.T) {
	cfg := config.RateLimitConfig{CartWindow: time.Minute, CartLimit: 1}
	handler := CartRateLimit(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
