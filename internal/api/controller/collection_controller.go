package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_catalog/internal/collection"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/gin-gonic/gin"
)

// SyncedCollection is the part of a collection.Controller the HTTP layer uses.
type SyncedCollection[T any] interface {
	Name() string
	Snapshot() collection.Snapshot[T]
	Refresh(ctx context.Context) bool
}

// CollectionController provides generic handlers for a synchronized reference
// collection. Refreshes run on the application context so they outlive the request.
type CollectionController[T any] struct {
	baseCtx    context.Context
	collection SyncedCollection[T]
}

func NewCollectionController[T any](baseCtx context.Context, c SyncedCollection[T]) *CollectionController[T] {
	return &CollectionController[T]{baseCtx: baseCtx, collection: c}
}

// RegisterRoutes registers GET /<name> and POST /<name>/refresh.
func (cc *CollectionController[T]) RegisterRoutes(rg *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	name := cc.collection.Name()
	rg.GET("/"+name, chain(middleware, cc.Get)...)
	rg.POST("/"+name+"/refresh", chain(middleware, cc.Refresh)...)
}

func chain(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, middleware...), h)
}

// Get handles GET /<name> and returns the current snapshot.
func (cc *CollectionController[T]) Get(c *gin.Context) {
	logger.WithComponent("collection-controller").Debugf("GET /%s handler called", cc.collection.Name())
	c.JSON(http.StatusOK, cc.collection.Snapshot())
}

// Refresh handles POST /<name>/refresh. It answers 202 whether or not a fetch
// was issued; a fetch already in flight is not duplicated.
func (cc *CollectionController[T]) Refresh(c *gin.Context) {
	issued := cc.collection.Refresh(cc.baseCtx)
	logger.WithComponent("collection-controller").Debugf("POST /%s/refresh issued=%v", cc.collection.Name(), issued)
	c.JSON(http.StatusAccepted, gin.H{"issued": issued})
}
