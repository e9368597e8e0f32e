package middleware

import (
	"marketplace-app/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetrics counts requests by route template, so path parameters do
// not explode label cardinality.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequest(c.Request.Method, path, c.Writer.Status())
	}
}
