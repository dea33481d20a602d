package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/gin-gonic/gin"
)

const contentComponent = "content-controller"

// ContentReader is the part of the repository the content endpoints read.
type ContentReader interface {
	ContentSummaryState(ctx context.Context, id int) (<-chan model.ContentSummaryState, error)
	ChildContentsState(ctx context.Context, id int) (<-chan model.ChildContentsState, error)
	ContentDynamicState(ctx context.Context, id int) (<-chan model.DynamicContentState, error)
	ContentPersistableState(id int) (model.ContentPersistableState, error)
	Playlist(id int) ([]model.VideoPlaybackState, error)
	PersistContentForOffline(id int) error
	LoadDownloadedChildContentsIntoCache(id int) error
}

type DetailsFetcher interface {
	Load(ctx context.Context, id int) (model.Content, bool, error)
}

// ContentController exposes the derived states of a single content.
type ContentController struct {
	repo    ContentReader
	details DetailsFetcher
}

func NewContentController(repo ContentReader, details DetailsFetcher) *ContentController {
	return &ContentController{repo: repo, details: details}
}

// streamValue answers with the current value of the stream opened by open.
func streamValue[T any](c *gin.Context, open func(ctx context.Context, id int) (<-chan T, error)) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := open(ctx, id)
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	v, err := first(ctx, stream)
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Summary handles GET /contents/:id/summary.
func (cc *ContentController) Summary(c *gin.Context) {
	streamValue(c, cc.repo.ContentSummaryState)
}

// Children handles GET /contents/:id/children.
func (cc *ContentController) Children(c *gin.Context) {
	streamValue(c, cc.repo.ChildContentsState)
}

// Dynamic handles GET /contents/:id/dynamic.
func (cc *ContentController) Dynamic(c *gin.Context) {
	streamValue(c, cc.repo.ContentDynamicState)
}

// Playlist handles GET /contents/:id/playlist.
func (cc *ContentController) Playlist(c *gin.Context) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}
	playlist, err := cc.repo.Playlist(id)
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// Persistable handles GET /contents/:id/persistable.
func (cc *ContentController) Persistable(c *gin.Context) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}
	state, err := cc.repo.ContentPersistableState(id)
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Details handles POST /contents/:id/details: it fetches the content with its
// children and relationships into the cache.
func (cc *ContentController) Details(c *gin.Context) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}
	content, shared, err := cc.details.Load(c.Request.Context(), id)
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	logger.WithContent(contentComponent, id).Debugf("details loaded, shared=%v", shared)
	c.JSON(http.StatusOK, content)
}

// Offline handles POST /contents/:id/offline. With ?persist=true the cached
// subtree is written to the durable store; otherwise the stored subtree is
// loaded back into the cache.
func (cc *ContentController) Offline(c *gin.Context) {
	id, ok := contentID(c, "id")
	if !ok {
		return
	}

	var err error
	if c.Query("persist") == "true" {
		err = cc.repo.PersistContentForOffline(id)
	} else {
		err = cc.repo.LoadDownloadedChildContentsIntoCache(id)
	}
	if err != nil {
		writeError(c, contentComponent, err)
		return
	}
	c.Status(http.StatusNoContent)
}
