package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type enrollmentEngine interface {
	AddCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error)
	DropCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error)
	ListCourses(ctx context.Context, studentID int64, period string, activeOnly bool) ([]models.EnrollmentLineDetail, error)
	Summary(ctx context.Context, studentID int64, period string) (*models.EnrollmentSummary, error)
}

type statementExporter interface {
	EnrollmentStatement(ctx context.Context, studentID int64, period string, format models.ExportFormat) (*models.Statement, error)
}

// AddCourseRequest is the payload for adding a course to an enrollment.
type AddCourseRequest struct {
	CourseID int64  `json:"course_id" binding:"required,gt=0"`
	Period   string `json:"period" binding:"omitempty,max=16"`
}

// EnrollmentHandler exposes the enrollment engine over HTTP.
type EnrollmentHandler struct {
	engine   enrollmentEngine
	exporter statementExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(engine enrollmentEngine, exporter statementExporter) *EnrollmentHandler {
	return &EnrollmentHandler{engine: engine, exporter: exporter}
}

// Get godoc
// @Summary Show a student's enrollment
// @Description Returns the active enrollment summary, or every line including dropped ones when all=true.
// @Tags Enrollment
// @Produce json
// @Param id path int true "Student ID"
// @Param period query string false "Academic period"
// @Param all query bool false "Include dropped courses"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollment [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	period := c.Query("period")
	if boolQuery(c, "all") {
		lines, err := h.engine.ListCourses(c.Request.Context(), studentID, period, false)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, lines, nil)
		return
	}
	summary, err := h.engine.Summary(c.Request.Context(), studentID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AddCourse godoc
// @Summary Add a course to the student's enrollment
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body AddCourseRequest true "Course to add"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollment/courses [post]
func (h *EnrollmentHandler) AddCourse(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req AddCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.engine.AddCourse(c.Request.Context(), studentID, req.CourseID, strings.TrimSpace(req.Period))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}

// DropCourse godoc
// @Summary Drop a course from the student's enrollment
// @Tags Enrollment
// @Produce json
// @Param id path int true "Student ID"
// @Param courseId path int true "Course ID"
// @Param period query string false "Academic period"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollment/courses/{courseId} [delete]
func (h *EnrollmentHandler) DropCourse(c *gin.Context) {
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.engine.DropCourse(c.Request.Context(), studentID, courseID, c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, result)
}

// Export godoc
// @Summary Download an enrollment statement
// @Tags Enrollment
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Student ID"
// @Param period query string false "Academic period"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollment/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	studentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	statement, err := h.exporter.EnrollmentStatement(c.Request.Context(), studentID, c.Query("period"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+statement.Filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, statement.ContentType, statement.Body)
}
