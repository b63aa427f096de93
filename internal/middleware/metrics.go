package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpaiva-dev/frequencia-api/internal/service"
)

// Metrics records one HTTP observation per request. The route template is
// preferred over the raw path so IDs do not explode label cardinality. A nil
// service turns the middleware into a no-op.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}
