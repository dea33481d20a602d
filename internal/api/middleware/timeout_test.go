package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func timeoutRouter(d time.Duration, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestTimeout(d))
	r.GET("/api/contents/:id/summary", h)
	return r
}

func get(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contents/1/summary", nil))
	return w
}

func TestRequestTimeout_Disabled(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		var hasDeadline bool
		r := timeoutRouter(d, func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		w := get(r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, hasDeadline, "no deadline expected for %s", d)
	}
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	r := timeoutRouter(5*time.Second, func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := get(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hasDeadline)
}

func TestRequestTimeout_AnswersWhenHandlerGivesUp(t *testing.T) {
	hook := test.NewLocal(logger.Logger)
	r := timeoutRouter(50*time.Millisecond, func(c *gin.Context) {
		select {
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		case <-c.Request.Context().Done():
		}
	})

	w := get(r)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "request timeout")

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, "/api/contents/:id/summary", entry.Data["route"])
	}
}

func TestRequestTimeout_KeepsWrittenResponse(t *testing.T) {
	r := timeoutRouter(50*time.Millisecond, func(c *gin.Context) {
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		<-c.Request.Context().Done()
	})

	w := get(r)
	assert.Equal(t, http.StatusOK, w.Code)
}
