package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
)

// writeError maps err to an HTTP status by its error class.
func writeError(c *gin.Context, component string, err error) {
	switch {
	case errdefs.IsNotFound(err):
		logger.WithComponent(component).Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errdefs.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errdefs.IsUnavailable(err):
		logger.WithComponent(component).Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errdefs.IsDeadlineExceeded(err), errdefs.IsCanceled(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timeout"})
	default:
		logger.WithComponent(component).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// contentID parses a positive integer path parameter, answering 400 otherwise.
func contentID(c *gin.Context, param string) (int, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content id"})
		return 0, false
	}
	return id, true
}

// first reads the current value of a stream.
func first[T any](ctx context.Context, ch <-chan T) (T, error) {
	select {
	case v, ok := <-ch:
		if !ok {
			var zero T
			return zero, context.Canceled
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
