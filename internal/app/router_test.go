package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/config"
)

func newTestContainer() *Container {
	return &Container{
		Config:  &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"},
		Logger:  zap.NewNop(),
		Metrics: service.NewMetricsService(),
		Tokens:  service.NewTokenService(nil, nil, service.TokenConfig{Secret: "secret", Issuer: "academic-records", Expiry: time.Hour}),
	}
}

func TestNewRouterRegistersRoutes(t *testing.T) {
	router := NewRouter(newTestContainer())

	registered := map[string]bool{}
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /docs/*any",
		"GET /api/v1/students",
		"GET /api/v1/courses/programs",
		"GET /api/v1/library-items/:id",
		"POST /api/v1/students/:id/enrollment/courses",
		"DELETE /api/v1/students/:id/enrollment/courses/:courseId",
		"GET /api/v1/students/:id/enrollment/export",
		"POST /api/v1/students/:id/reservations",
		"DELETE /api/v1/students/:id/reservations/:itemId",
		"POST /api/v1/admin/initialize",
		"POST /api/v1/admin/reset",
		"POST /api/v1/admin/students/:id/sync",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestRouterGuardsAdminRoutes(t *testing.T) {
	c := newTestContainer()
	router := NewRouter(c)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	issued, err := c.Tokens.Issue(service.IssueTokenRequest{Subject: "ops", Role: models.RoleOperator})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	issued, err = c.Tokens.Issue(service.IssueTokenRequest{Subject: "ops", Role: models.RoleAdmin})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterHealthAndRequestID(t *testing.T) {
	router := NewRouter(newTestContainer())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCORSAdvertisesServedMethods(t *testing.T) {
	router := NewRouter(newTestContainer())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/students/1/reservations", nil)
	req.Header.Set("Origin", "http://portal.test")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "DELETE, GET, OPTIONS, POST", rec.Header().Get("Access-Control-Allow-Methods"))
}
