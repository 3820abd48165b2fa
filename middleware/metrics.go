package middleware

import (
	"net/http"
	"strconv"

	"wccleanup/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetrics counts requests by cleanup operation (or route), status and method.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		operation := c.Param("operation")
		if operation == "" {
			operation = c.FullPath()
		}
		if operation == "" || c.Writer.Status() == http.StatusNotFound {
			operation = "unmatched"
		}
		metrics.TotalRequests.WithLabelValues(operation, strconv.Itoa(c.Writer.Status()), c.Request.Method).Inc()
	}
}
