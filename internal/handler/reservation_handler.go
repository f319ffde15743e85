package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type reservationEngine interface {
	Reserve(ctx context.Context, studentID, itemID int64) (*models.Result, error)
	Cancel(ctx context.Context, studentID, itemID int64) (*models.Result, error)
	ListReservations(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error)
}

// ReserveItemRequest is the payload for reserving a library item.
type ReserveItemRequest struct {
	ItemID int64 `json:"item_id" binding:"required,gt=0"`
}

// ReservationHandler exposes the reservation engine over HTTP.
type ReservationHandler struct {
	engine reservationEngine
}

// NewReservationHandler constructs ReservationHandler.
func NewReservationHandler(engine reservationEngine) *ReservationHandler {
	return &ReservationHandler{engine: engine}
}

// List godoc
// @Summary List a student's reservations
// @Tags Reservations
// @Produce json
// @Param id path int true "Student ID"
// @Param all query bool false "Include cancelled reservations"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	reservations, err := h.engine.ListReservations(c.Request.Context(), studentID, !boolQuery(c, "all"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservations, nil)
}

// Reserve godoc
// @Summary Reserve a library item
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body ReserveItemRequest true "Item to reserve"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req ReserveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.engine.Reserve(c.Request.Context(), studentID, req.ItemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}

// Cancel godoc
// @Summary Cancel a reservation
// @Tags Reservations
// @Produce json
// @Param id path int true "Student ID"
// @Param itemId path int true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/reservations/{itemId} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.engine.Cancel(c.Request.Context(), studentID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}
