package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// CustomLoggerMiddleware logs HTTP requests in simple text format.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		actor := "-"
		if id, exists := c.Get("actor_id"); exists {
			if s, ok := id.(string); ok && s != "" {
				actor = s
			}
		}

		fmt.Printf("[API] %s | %s | %d | %s | %s | Actor: %s\n",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			latency.String(),
			c.ClientIP(),
			actor,
		)
	}
}
