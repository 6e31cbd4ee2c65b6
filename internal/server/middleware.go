package server

import (
	"strconv"
	"time"

	"fitconnect/internal/metrics"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that fell through to NoRoute, keeping raw
// URLs out of the metric labels.
const unmatchedRoute = "unmatched"

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
