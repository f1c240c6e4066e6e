package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/v1")
	v1.GET("/projects", s.handleListProjects)
	v1.GET("/projects/:name", s.handleGetProject)
	v1.GET("/history", s.handleHistory)

	analyze := v1.Group("/analyze", RateLimitMiddleware(s.limiter, s.metrics))
	analyze.POST("", s.handleAnalyze)
	analyze.POST("/stream", s.handleAnalyzeStream)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "route not found: " + c.Request.URL.Path,
			Code:      "NOT_FOUND",
			RequestID: GetRequestID(c),
		})
	})
}
