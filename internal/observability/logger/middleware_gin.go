package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MiddlewareConfig tunes the request logger.
type MiddlewareConfig struct {
	// SkipPaths lists exact paths that are never logged, e.g. health checks.
	SkipPaths []string
}

// GinMiddleware assigns each request an ID, echoes it on X-Request-Id, and
// logs the request outcome with masked headers.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		log := FromContext(c.Request.Context()).With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Error("request failed", zap.Any("headers", MaskHeaders(c.Request.Header)))
		case status >= 400:
			log.Warn("request rejected")
		default:
			log.Info("request completed")
		}
	}
}
