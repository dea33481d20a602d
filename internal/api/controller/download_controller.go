package controller

import (
	"net/http"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const downloadComponent = "download-controller"

type DownloadWriter interface {
	Download(contentID int) (*model.Download, error)
	SaveDownload(d model.Download) (model.Download, error)
	DeleteDownload(contentID int) error
}

// DownloadController records download state reported by the downloader. The
// dynamic state streams of the content observe every change.
type DownloadController struct {
	store    DownloadWriter
	validate *validator.Validate
}

func NewDownloadController(store DownloadWriter) *DownloadController {
	return &DownloadController{store: store, validate: validator.New()}
}

// Get handles GET /downloads/:contentID.
func (dc *DownloadController) Get(c *gin.Context) {
	id, ok := contentID(c, "contentID")
	if !ok {
		return
	}
	d, err := dc.store.Download(id)
	if err != nil {
		writeError(c, downloadComponent, err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// Put handles PUT /downloads/:contentID.
func (dc *DownloadController) Put(c *gin.Context) {
	id, ok := contentID(c, "contentID")
	if !ok {
		return
	}

	var d model.Download
	if err := c.ShouldBindJSON(&d); err != nil {
		logger.WithContent(downloadComponent, id).Debugf("invalid payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	d.ContentID = id
	if err := dc.validate.Struct(d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := dc.store.SaveDownload(d)
	if err != nil {
		writeError(c, downloadComponent, err)
		return
	}
	logger.WithContent(downloadComponent, id).Debugf("download saved in state %s", saved.State)
	c.JSON(http.StatusOK, saved)
}

// Delete handles DELETE /downloads/:contentID.
func (dc *DownloadController) Delete(c *gin.Context) {
	id, ok := contentID(c, "contentID")
	if !ok {
		return
	}
	if err := dc.store.DeleteDownload(id); err != nil {
		writeError(c, downloadComponent, err)
		return
	}
	c.Status(http.StatusNoContent)
}
