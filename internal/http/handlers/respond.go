package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

func RespondOK(ctx *gin.Context, status int, message string, data any) {
	envelope.OK(ctx, status, message, data)
}

func RespondError(ctx *gin.Context, status int, code, message string, errs any) {
	envelope.Fail(ctx, status, code, message, errs)
}

func RespondBadRequest(ctx *gin.Context, message string, errs any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, errs)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal logs the cause and hides it from the client.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", err,
		"request_id", envelope.RequestID(ctx),
		"route", ctx.FullPath(),
	)
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}
