package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/internal/modules/logs"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		clientIP := c.ClientIP()

		c.Next()

		statusCode := c.Writer.Status()
		duration := time.Since(start)

		event := logs.Logger.Info()
		if statusCode >= 500 {
			event = logs.Logger.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Str("method", method).
			Str("path", path).
			Str("client_ip", clientIP).
			Int("status", statusCode).
			Int("resp_bytes", c.Writer.Size()).
			Dur("duration", duration).
			Msg("request log")
	}
}
