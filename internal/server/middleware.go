package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
		}
		switch {
		case status >= 500:
			s.logger.Error("http request", attrs...)
		case status >= 400:
			s.logger.Warn("http request", attrs...)
		default:
			s.logger.Info("http request", attrs...)
		}
	}
}
