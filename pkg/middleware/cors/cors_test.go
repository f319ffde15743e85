package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins, RouteMethods(r)))
	r.GET("/courses", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/students/:id/reservations", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/students/:id/reservations/:itemId", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSAllowedOrigin(t *testing.T) {
	r := newRouter([]string{"http://portal.test/"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Origin", "http://portal.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://portal.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := newRouter([]string{"http://portal.test"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Origin", "http://evil.test")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/courses", nil)
	req.Header.Set("Origin", "http://any.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSAllowsServedMethods(t *testing.T) {
	r := newRouter(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/students/1/reservations", nil)
	req.Header.Set("Origin", "http://any.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, "DELETE, GET, OPTIONS, POST", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSWithoutMethodSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(nil, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
