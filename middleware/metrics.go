package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NIN31/hdattendance/utils"
)

// RequestMetrics observes request latency per matched route.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		// scraping and probes would drown the interesting routes
		if route == "/metrics" || route == "/health" {
			return
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"
		utils.HTTPRequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(start).Seconds())
	}
}
