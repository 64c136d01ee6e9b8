package middleware

import (
	"strconv"
	"time"

	"carrental-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics observes the response duration per route template and status code
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPResponseDurationMilliseconds.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond))
	}
}
