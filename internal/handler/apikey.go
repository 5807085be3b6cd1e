package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/dto"
)

// APIKeyHeader carries the public key every app build ships with.
const APIKeyHeader = "apikey"

// APIKeyMiddleware rejects requests that do not present the public API key.
func APIKeyMiddleware(publicKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(publicKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "No API key found in request",
			})
			return
		}
		c.Next()
	}
}
