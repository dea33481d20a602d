package route

import (
	"time"

	"github.com/bassista/go_catalog/internal/api/controller"
	"github.com/bassista/go_catalog/internal/api/middleware"
	"github.com/bassista/go_catalog/internal/app"
	"github.com/gin-gonic/gin"
)

// NewCollectionRouter sets up the reference collection routes (domains and categories).
func NewCollectionRouter(appCtx *app.App, timeout time.Duration, group *gin.RouterGroup) {
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	controller.NewCollectionController(appCtx.BaseCtx, appCtx.Domains).RegisterRoutes(group, timeoutMiddleware)
	controller.NewCollectionController(appCtx.BaseCtx, appCtx.Categories).RegisterRoutes(group, timeoutMiddleware)
}

func NewLibraryRouter(appCtx *app.App, timeout time.Duration, group *gin.RouterGroup) {
	lc := controller.NewLibraryController(appCtx.BaseCtx, appCtx.Listing, appCtx.Repo)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("library", timeoutMiddleware, lc.Library)
	group.POST("library/reload", timeoutMiddleware, lc.Reload)
	group.POST("library/more", timeoutMiddleware, lc.More)
}
