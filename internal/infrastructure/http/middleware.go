package httptransport

import (
	"strconv"
	"time"

	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RequestTelemetry issues an X-Request-ID, binds a request-scoped logger
// into the request context, and records per-route request counts and
// latencies with low-cardinality labels.
func RequestTelemetry(base *zap.Logger, requests *prometheus.CounterVec, durations *prometheus.HistogramVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", rid)

		logger := base.With(zap.String("request_id", rid))
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), logger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if requests != nil {
			requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		}
		if durations != nil {
			durations.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}

		logger.Info("http_request_done",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
