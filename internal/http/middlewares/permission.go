package middlewares

import (
	"net/http"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

// RequirePermission must run after RequireAuth.
func RequirePermission(p account.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := AccountFromContext(c)

		if !ok {
			envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !acc.Can(p) {
			envelope.Abort(c, http.StatusForbidden, "forbidden", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}
