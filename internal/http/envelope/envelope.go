package envelope

import (
	"github.com/gin-gonic/gin"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-Id"
)

// Body is the single response shape for every JSON endpoint.
type Body struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func RequestID(ctx *gin.Context) string {
	v, ok := ctx.Get(RequestIDKey)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader(RequestIDHeader)
}

func OK(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, Body{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Fail(ctx *gin.Context, status int, code, message string, errs any) {
	ctx.JSON(status, failure(ctx, code, message, errs))
}

// Abort is Fail for middleware: it stops the chain.
func Abort(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, failure(ctx, code, message, nil))
}

func failure(ctx *gin.Context, code, message string, errs any) Body {
	return Body{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: RequestID(ctx),
		Errors:    errs,
	}
}
