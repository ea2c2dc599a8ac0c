package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scsvmv/vms-api/internal/service"
)

// Metrics records per-route request metrics. Requests that match no
// registered route (scanner typos, probe traffic) are folded into a
// single label so raw URLs never become Prometheus label values.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
