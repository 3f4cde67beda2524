package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/plazagoods/storefront-backend/api/responses"
	"github.com/plazagoods/storefront-backend/pkg/config"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CartRateLimit throttles cart mutations per authenticated user, falling back
// to the client IP when no user is bound to the request.
func CartRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.CartWindow <= 0 || cfg.CartLimit <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := "cart:" + limiterSubject(r)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.CartLimit), cfg.CartWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          cfg.CartLimit,
						"window_seconds": int(cfg.CartWindow.Seconds()),
					})
					logg.Warn(logCtx, "cart.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limiterSubject(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID
	}
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
