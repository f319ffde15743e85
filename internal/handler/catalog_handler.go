package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type catalogService interface {
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListCourseOfferings(ctx context.Context, filter models.CourseFilter) ([]models.CourseOffering, *models.Pagination, error)
	GetCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error)
	ListPrograms(ctx context.Context) ([]string, error)
	ListLibraryItems(ctx context.Context, filter models.LibraryItemFilter) ([]models.LibraryItem, *models.Pagination, error)
	GetLibraryItem(ctx context.Context, id int64) (*models.LibraryItem, error)
}

// CatalogHandler exposes read-only student, course and library listings.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListStudents godoc
// @Summary List students
// @Tags Catalog
// @Produce json
// @Param search query string false "Name contains"
// @Param program query string false "Filter by program"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *CatalogHandler) ListStudents(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = c.Query("search")
	filter.Program = c.Query("program")
	filter.Page, filter.PageSize = pageParams(c)

	students, pagination, err := h.catalog.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// GetStudent godoc
// @Summary Get student
// @Tags Catalog
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *CatalogHandler) GetStudent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.catalog.GetStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// ListCourses godoc
// @Summary List course offerings
// @Tags Catalog
// @Produce json
// @Param search query string false "Title contains"
// @Param program query string false "Filter by program"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = c.Query("search")
	filter.Program = c.Query("program")
	filter.Page, filter.PageSize = pageParams(c)

	courses, pagination, err := h.catalog.ListCourseOfferings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// GetCourse godoc
// @Summary Get course offering
// @Tags Catalog
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.catalog.GetCourseOffering(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListPrograms godoc
// @Summary List programs offering courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	programs, err := h.catalog.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// ListLibraryItems godoc
// @Summary List library items
// @Tags Catalog
// @Produce json
// @Param search query string false "Title or author contains"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library-items [get]
func (h *CatalogHandler) ListLibraryItems(c *gin.Context) {
	var filter models.LibraryItemFilter
	filter.Search = c.Query("search")
	filter.Status = c.Query("status")
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.catalog.ListLibraryItems(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetLibraryItem godoc
// @Summary Get library item
// @Tags Catalog
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /library-items/{id} [get]
func (h *CatalogHandler) GetLibraryItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.catalog.GetLibraryItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
