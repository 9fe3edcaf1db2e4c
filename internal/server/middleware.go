package server

import (
	"time"

	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/infra/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	regionHeader    = "X-Snapshot-Region"
	requestIDKey    = "request_id"
)

// requestLogger tags every response with a request id and records status and latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = log.GenerateRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		log.LogRequest(id, c.Request.Method, c.Request.URL.Path,
			zap.String("client_ip", c.ClientIP()))

		c.Next()

		status := c.Writer.Status()
		log.LogResponse(id, status, time.Since(start).Milliseconds(),
			zap.String("path", c.Request.URL.Path),
			zap.Int("size", c.Writer.Size()))
		metrics.ObserveHTTP(c.FullPath(), status)
	}
}
