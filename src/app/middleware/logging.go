package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"libgate/src/core/domain"
	"libgate/src/infra/logger"
)

// Logging emits one structured line per request once the chain has run,
// including how the CORS policy classified it.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
		}
		if origin := c.GetHeader(domain.HeaderOrigin); origin != "" {
			attrs = append(attrs, "origin", origin)
		}
		if d, ok := GetCORSDecision(c); ok {
			attrs = append(attrs, "cors_kind", d.Kind.String(), "cors_outcome", d.Outcome.String())
			if d.Reason != domain.ReasonNone {
				attrs = append(attrs, "cors_reason", d.Reason.String())
			}
		}

		reqLog := logger.WithRequestID(log, GetRequestID(c))
		switch {
		case status >= 500:
			reqLog.Error("request completed", attrs...)
		case status >= 400:
			reqLog.Warn("request completed", attrs...)
		default:
			reqLog.Info("request completed", attrs...)
		}
	}
}
