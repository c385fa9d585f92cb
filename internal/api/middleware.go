package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 128
)

// RequestID keeps an inbound X-Request-ID when it looks sane and otherwise
// issues a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Logger writes one entry per request.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			logger.Error("HTTP request with errors", fields...)
			return
		}
		if path == "/api/health" || path == "/metrics" {
			logger.Debug("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

// Recovery turns a panic into a plain 500. The stack is only written to the
// response when the server runs in debug mode and the request asks for it
// with ?debug=true.
func Recovery(logger *zap.Logger, debugMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			stack := debug.Stack()
			logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(requestIDKey)),
				zap.ByteString("stack", stack),
			)

			body := http.StatusText(http.StatusInternalServerError)
			if debugMode && c.Query("debug") == "true" {
				body = string(stack)
			}
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.AbortWithStatus(http.StatusInternalServerError)
			_, _ = c.Writer.WriteString(body)
		}()

		c.Next()
	}
}
