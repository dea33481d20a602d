package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/gin-gonic/gin"
)

func TestHoneybadgerMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(HoneybadgerMiddleware(logger.WithComponent("http")))
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 to pass through, got %d", w.Code)
	}
}
