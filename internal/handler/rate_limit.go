package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + keyFunc(c)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))

		remaining, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			var rateErr *service.RateLimitError
			if errors.As(err, &rateErr) {
				c.Header("X-RateLimit-Remaining", "0")
				respondError(c, logger, err)
				return
			}

			// Redis trouble should not lock everyone out.
			logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

// IPBasedKey extracts rate limit key from client IP
func IPBasedKey(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	return c.ClientIP()
}
