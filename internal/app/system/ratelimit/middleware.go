package ratelimit

import (
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"go.uber.org/zap"
)

// Middleware rejects requests with 429 once the client IP has used up its
// window. A failing backend lets the request through.
func Middleware(c Checker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ok, err := c.Check(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				apiresp.Error(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
