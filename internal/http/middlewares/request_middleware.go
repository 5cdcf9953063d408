package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(envelope.RequestIDHeader)

		if !validRequestID(id) {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(envelope.RequestIDHeader, id)

		ctx.Set(envelope.RequestIDKey, id)

		ctx.Next()
	}
}

// RequestLogger writes one record per request once the handler chain has
// finished. Paths in quiet (health checks, scrapes) are only logged when they fail.
func RequestLogger(log *slog.Logger, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		path := ctx.Request.URL.Path

		if _, ok := skip[path]; ok && status < 500 {
			return
		}

		route := ctx.FullPath()
		if route == "" {
			route = path // unmatched, e.g. 404
		}

		attrs := []slog.Attr{
			slog.String("method", ctx.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes", ctx.Writer.Size()),
			slog.String("client_ip", ctx.ClientIP()),
			slog.String("request_id", envelope.RequestID(ctx)),
		}

		if acc, ok := AccountFromContext(ctx); ok {
			attrs = append(attrs, slog.String("account_id", acc.ID))
		}
		if len(ctx.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", ctx.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400 && status != 404:
			level = slog.LevelWarn
		}

		log.LogAttrs(ctx.Request.Context(), level, "http_request", attrs...)
	}
}

// validRequestID accepts caller ids that are short printable ASCII, so they
// are safe to echo into headers and logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
