package handlers

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

// RespondOKWithETag answers 200 with a strong validator over data, or 304
// when the client already holds it. Only data is hashed so the per-request
// id in the envelope never changes the tag.
func RespondOKWithETag(ctx *gin.Context, message string, data any) {
	body := envelope.Body{Success: true, Message: message, Data: data}

	raw, err := json.Marshal(data)
	if err != nil {
		ctx.JSON(http.StatusOK, body)
		return
	}

	tag := contentETag(raw)
	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(http.StatusOK, body)
}

func contentETag(raw []byte) string {
	sum := sha256.Sum256(raw)
	return `"` + base64.RawURLEncoding.EncodeToString(sum[:16]) + `"`
}

// etagMatches applies the weak comparison If-None-Match calls for: a W/
// prefix is ignored and "*" matches anything.
func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(current, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == want {
			return true
		}
	}
	return false
}
