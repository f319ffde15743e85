package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedRequest struct {
	method string
	path   string
	status int
}

type httpObserverStub struct {
	requests []observedRequest
}

func (s *httpObserverStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.requests = append(s.requests, observedRequest{method: method, path: path, status: status})
}

func TestMetricsRecordsRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &httpObserverStub{}
	router := gin.New()
	router.Use(Metrics(observer, "/metrics"))
	router.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/students/7", "/metrics", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/students/:id", status: http.StatusNotFound}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
}
