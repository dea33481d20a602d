package route

import (
	"time"

	"github.com/bassista/go_catalog/internal/api/controller"
	"github.com/bassista/go_catalog/internal/api/middleware"
	"github.com/bassista/go_catalog/internal/app"
	"github.com/gin-gonic/gin"
)

func NewContentRouter(appCtx *app.App, timeout time.Duration, group *gin.RouterGroup) {
	cc := controller.NewContentController(appCtx.Repo, appCtx.Details)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("contents/:id/summary", timeoutMiddleware, cc.Summary)
	group.GET("contents/:id/children", timeoutMiddleware, cc.Children)
	group.GET("contents/:id/dynamic", timeoutMiddleware, cc.Dynamic)
	group.GET("contents/:id/playlist", timeoutMiddleware, cc.Playlist)
	group.GET("contents/:id/persistable", timeoutMiddleware, cc.Persistable)
	group.POST("contents/:id/details", timeoutMiddleware, cc.Details)
	group.POST("contents/:id/offline", timeoutMiddleware, cc.Offline)
}

func NewDownloadRouter(appCtx *app.App, timeout time.Duration, group *gin.RouterGroup) {
	dc := controller.NewDownloadController(appCtx.Repo)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("downloads/:contentID", timeoutMiddleware, dc.Get)
	group.PUT("downloads/:contentID", timeoutMiddleware, dc.Put)
	group.DELETE("downloads/:contentID", timeoutMiddleware, dc.Delete)
}

// NewStreamRouter sets up the server-sent event routes. They run without a
// request timeout.
func NewStreamRouter(appCtx *app.App, group *gin.RouterGroup) {
	sc := controller.NewStreamController(appCtx.BaseCtx, appCtx.Repo)

	group.GET("contents/:id/dynamic/stream", sc.DynamicState)
	group.GET("invalidations", sc.Invalidations)
}
