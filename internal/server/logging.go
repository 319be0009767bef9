package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
)

// RequestLoggingMiddleware logs one line per request. Server errors are logged at error level.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		}
		if id, ok := auth.GetUserID(c); ok {
			args = append(args, "user_id", id)
		}

		if status >= 500 {
			logger.Error("HTTP request", args...)
			return
		}
		logger.Info("HTTP request", args...)
	}
}

