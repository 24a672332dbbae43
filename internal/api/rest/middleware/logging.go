package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/videotube-server/internal/logger"
)

// Logging logs HTTP requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, route, duration and status for each request.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	c.Next()

	status := c.Writer.Status()
	args := []any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP(),
	}

	switch {
	case status >= 500:
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		l.logger.Error("HTTP request failed", args...)
	default:
		l.logger.Info("HTTP request completed", args...)
	}
}
