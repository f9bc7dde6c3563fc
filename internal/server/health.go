package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		} else {
			body["database"] = "ok"
		}
	}
	c.JSON(status, body)
}
