package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type syncService interface {
	InitializeSystem(ctx context.Context, force bool) (*models.Result, error)
	SyncStudent(ctx context.Context, id int64) (*models.Student, error)
	Reset(ctx context.Context) (*models.Result, error)
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// AdminHandler exposes operator endpoints for the local record store.
type AdminHandler struct {
	sync    syncService
	metrics metricsSnapshotter
	logger  *zap.Logger
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(sync syncService, metrics metricsSnapshotter, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{sync: sync, metrics: metrics, logger: logger}
}

// Initialize godoc
// @Summary Import records from the upstream providers
// @Tags Admin
// @Produce json
// @Param force query bool false "Re-import even when records are cached"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/initialize [post]
func (h *AdminHandler) Initialize(c *gin.Context) {
	force := boolQuery(c, "force")
	h.logger.Info("initialize requested", zap.String("actor", actor(c)), zap.Bool("force", force))
	result, err := h.sync.InitializeSystem(c.Request.Context(), force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}

// Reset godoc
// @Summary Delete every local record
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reset [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	h.logger.Warn("reset requested", zap.String("actor", actor(c)))
	result, err := h.sync.Reset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}

// SyncStudent godoc
// @Summary Refresh one student from the students provider
// @Tags Admin
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/{id}/sync [post]
func (h *AdminHandler) SyncStudent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.sync.SyncStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Metrics godoc
// @Summary Runtime metrics summary
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/metrics [get]
func (h *AdminHandler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		response.JSON(c, http.StatusOK, models.SystemMetrics{}, nil)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
