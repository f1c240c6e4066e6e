package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Projects  map[string]int `json:"projects"`
	Error     string         `json:"error,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 until the lifecycle engine is running. The
// per-status project counts are informational.
func (s *Server) handleReady(c *gin.Context) {
	resp := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Projects:  map[string]int{},
	}
	for _, d := range s.projects.List() {
		resp.Projects[d.Status.String()]++
	}

	if s.ready != nil {
		if err := s.ready(); err != nil {
			resp.Status = "not_ready"
			resp.Error = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
