package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/service"
)

// Metrics records request duration and status for every route. Uses the
// route template rather than the raw path so IDs do not explode cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
