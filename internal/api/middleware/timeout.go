package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds the request context by d. Handlers are expected to
// return once the context is done; a handler that returns without writing
// after the deadline is answered with 504.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	log := logger.WithComponent("request-timeout")

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		log.WithField("route", c.FullPath()).Warnf("request exceeded %s", d)
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request timeout"})
		}
	}
}
