package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/geocoder89/inkpost/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces limiter for a derived key. A limiter backend error
// fails open so a Redis blip does not take the API down.
func RateLimit(name string, limiter ratelimit.Limiter, keyFn func(*gin.Context) string, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		d, err := limiter.Allow(c.Request.Context(), name+":"+key)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "limiter", name, "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			prom.IncRateLimited(name)

			retryAfter := int(d.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			envelope.Abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByTokenOrIP keys on the token subject when the request carries a
// validly signed access token. It runs ahead of RequireAuth, so it checks the
// signature only and never touches the account store.
func KeyByTokenOrIP(v TokenVerifier) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if raw, ok := BearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := v.VerifyAccessToken(raw); err == nil && claims.AccountID() != "" {
				return "account:" + claims.AccountID()
			}
		}
		return clientIP(c)
	}
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
