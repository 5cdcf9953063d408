package middlewares

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 envelope. The panic value and stack are
// only returned to the client in dev.
func Recovery(log *slog.Logger, dev bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			stack := string(debug.Stack())
			log.ErrorContext(ctx.Request.Context(), "panic recovered",
				"panic", rec,
				"stack", stack,
				"request_id", envelope.RequestID(ctx),
			)

			body := envelope.Body{
				Success:   false,
				Message:   "Internal server error",
				Code:      "internal_error",
				RequestID: envelope.RequestID(ctx),
			}
			if dev {
				body.Errors = gin.H{"panic": rec, "stack": stack}
			}

			ctx.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		ctx.Next()
	}
}
