package middleware

import (
	"log/slog"
	"time"

	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/gin-gonic/gin"
)

const signingRoute = "/api/signing/:token"

// RequestLogger writes one line per request once the handler chain returns.
// Identity and document attributes come from the request context, which the
// auth middleware and document handlers enrich on the way in.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", loggedPath(c),
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if route := c.FullPath(); route != "" {
			attrs = append(attrs, "route", route)
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		logger.WithContext(ctx).Log(ctx, levelFor(status), "request completed", attrs...)
	}
}

// loggedPath keeps signing tokens, which travel in the path, out of the log.
func loggedPath(c *gin.Context) string {
	if route := c.FullPath(); route == signingRoute {
		return route
	}
	return c.Request.URL.Path
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
