package api

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	seekerrors "javaseeker/internal/errors"
	"javaseeker/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestIDMiddleware adds a unique request ID to each request, reusing
// the caller's X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

// GetRequestID retrieves the request ID set by RequestIDMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggingMiddleware logs one line per request after it completes.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"requestID", GetRequestID(c),
		)
	}
}

// RecoveryMiddleware turns a handler panic into a 500 response.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			"error", fmt.Sprintf("%v", recovered),
			"stack", string(debug.Stack()),
			"requestID", GetRequestID(c),
		)
		WriteError(c, seekerrors.NewInternalError("internal server error", nil))
		c.Abort()
	})
}

// MetricsMiddleware counts requests by route template and status.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(route, strconv.Itoa(c.Writer.Status()))
	}
}

// RateLimitMiddleware rejects requests beyond the limiter's rate with 429.
// A nil limiter lets everything through.
func RateLimitMiddleware(limiter *rate.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		r := limiter.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			m.QueueRejected("rate_limited")
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			WriteError(c, seekerrors.NewRateLimitedError(delay))
			c.Abort()
			return
		}
		c.Next()
	}
}
