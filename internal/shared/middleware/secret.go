package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pixelmuse/server/internal/shared/errors"
	"github.com/pixelmuse/server/internal/shared/response"
)

// SharedSecret requires "Authorization: Bearer <secret>" when enforce is set
// and secret is non-empty. Otherwise every request passes.
func SharedSecret(secret string, enforce bool) gin.HandlerFunc {
	if !enforce || secret == "" {
		return func(c *gin.Context) { c.Next() }
	}

	want := []byte(secret)
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			response.AppError(c, apperrors.Unauthorized(""))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
