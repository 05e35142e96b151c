package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 error body. The log line carries
// the request's context attributes (request id, tenant, document id) so a
// failed generation can be traced back to its record.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}

			// The client hung up mid-download; there is nobody to answer.
			if clientGone(err) {
				logger.Warn(ctx, "client connection lost", "route", c.FullPath(), "error", err)
				_ = c.Error(err)
				c.Abort()
				return
			}

			logger.Error(ctx, "panic recovered",
				"error", err,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			Abort(c, http.StatusInternalServerError, "Internal", "Internal server error")
		}()

		c.Next()
	}
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
