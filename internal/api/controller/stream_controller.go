package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/gin-gonic/gin"
)

const streamComponent = "stream-controller"

type StreamSource interface {
	ContentDynamicState(ctx context.Context, id int) (<-chan model.DynamicContentState, error)
	Invalidations(ctx context.Context, categories ...model.Invalidation) <-chan model.Invalidation
}

// StreamController relays cache streams to the client as server-sent events.
// A stream ends when the client goes away or the application shuts down.
type StreamController struct {
	baseCtx context.Context
	source  StreamSource
}

func NewStreamController(baseCtx context.Context, source StreamSource) *StreamController {
	return &StreamController{baseCtx: baseCtx, source: source}
}

// DynamicState handles GET /contents/:id/dynamic/stream.
func (sc *StreamController) DynamicState(c *gin.Context) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := sc.streamContext(c)
	defer cancel()

	stream, err := sc.source.ContentDynamicState(ctx, id)
	if err != nil {
		writeError(c, streamComponent, err)
		return
	}
	logger.WithContent(streamComponent, id).Debug("dynamic state stream opened")
	relay(c, ctx, "dynamic", stream)
	logger.WithContent(streamComponent, id).Debug("dynamic state stream closed")
}

// Invalidations handles GET /invalidations. Repeated ?category= parameters
// restrict the feed; without any the client receives every category.
func (sc *StreamController) Invalidations(c *gin.Context) {
	var categories []model.Invalidation
	for _, raw := range c.QueryArray("category") {
		inv, err := model.ParseInvalidation(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		categories = append(categories, inv)
	}

	ctx, cancel := sc.streamContext(c)
	defer cancel()
	relay(c, ctx, "invalidation", sc.source.Invalidations(ctx, categories...))
}

// streamContext ends with the request or with the application.
func (sc *StreamController) streamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	stop := context.AfterFunc(sc.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func relay[T any](c *gin.Context, ctx context.Context, event string, stream <-chan T) {
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(event, v)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
