package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_catalog/internal/collection"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/gin-gonic/gin"
)

type PagedListing interface {
	Snapshot() collection.ListingSnapshot
	Reload(ctx context.Context) bool
	LoadMore(ctx context.Context) bool
}

type SummaryReader interface {
	ContentSummaryStates(ctx context.Context, ids []int) (<-chan []model.ContentSummaryState, error)
}

type LibraryResponse struct {
	State model.DataState             `json:"state"`
	Total int                         `json:"total"`
	Page  int                         `json:"page"`
	Items []model.ContentSummaryState `json:"items"`
	Error string                      `json:"error,omitempty"`
}

// LibraryController serves the paginated content listing resolved to summaries.
type LibraryController struct {
	baseCtx   context.Context
	listing   PagedListing
	summaries SummaryReader
}

func NewLibraryController(baseCtx context.Context, listing PagedListing, summaries SummaryReader) *LibraryController {
	return &LibraryController{baseCtx: baseCtx, listing: listing, summaries: summaries}
}

// Library handles GET /library.
func (lc *LibraryController) Library(c *gin.Context) {
	snap := lc.listing.Snapshot()
	logger.WithComponent("library-controller").Debugf("GET /library handler called, state=%s ids=%d", snap.State, len(snap.ContentIDs))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stream, err := lc.summaries.ContentSummaryStates(ctx, snap.ContentIDs)
	if err != nil {
		writeError(c, "library-controller", err)
		return
	}
	items, err := first(ctx, stream)
	if err != nil {
		writeError(c, "library-controller", err)
		return
	}

	c.JSON(http.StatusOK, LibraryResponse{
		State: snap.State,
		Total: snap.Total,
		Page:  snap.Page,
		Items: items,
		Error: snap.Error,
	})
}

// Reload handles POST /library/reload.
func (lc *LibraryController) Reload(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"issued": lc.listing.Reload(lc.baseCtx)})
}

// More handles POST /library/more.
func (lc *LibraryController) More(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"issued": lc.listing.LoadMore(lc.baseCtx)})
}
