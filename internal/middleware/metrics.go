package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives one observation per served request.
// MetricsService satisfies it.
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

const unmatchedRoute = "unmatched"

// Metrics records latency and status per route template. Unmatched paths
// share one label so scanners cannot blow up series cardinality.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		obs.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
