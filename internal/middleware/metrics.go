package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jobdrop-api/internal/service"
	"github.com/noah-isme/jobdrop-api/pkg/middleware/requestid"
	"github.com/noah-isme/jobdrop-api/pkg/tracing"
)

// Observe records request metrics and wraps the request in a span, so
// workflow spans opened by services nest under the HTTP route.
func Observe(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx, span := tracing.Start(c.Request.Context(), fmt.Sprintf("%s %s", c.Request.Method, path), map[string]string{
			"http.method": c.Request.Method,
			"http.route":  path,
			"request_id":  requestid.Value(c),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		var spanErr error
		if status >= http.StatusInternalServerError {
			spanErr = fmt.Errorf("http status %d", status)
		}
		tracing.End(span, spanErr)
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, time.Since(start))
	}
}
