package route

import (
	"net/http"

	"github.com/bassista/go_catalog/internal/api/middleware"
	"github.com/bassista/go_catalog/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes builds the engine serving /health and the /api routes.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log.WithField("component", "http")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	api := r.Group("/api")
	timeout := appCtx.Config.Server.RequestTimeout

	NewCollectionRouter(appCtx, timeout, api)
	NewLibraryRouter(appCtx, timeout, api)
	NewContentRouter(appCtx, timeout, api)
	NewDownloadRouter(appCtx, timeout, api)
	NewStreamRouter(appCtx, api)

	return r
}
