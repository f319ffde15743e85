package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeCatalog struct {
	studentFilter models.StudentFilter
	courseFilter  models.CourseFilter
	itemFilter    models.LibraryItemFilter
	listErr       error
}

func (f *fakeCatalog) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.studentFilter = filter
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	return []models.Student{{ID: 1, Name: "Ana"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (f *fakeCatalog) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	if id != 1 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &models.Student{ID: 1, Name: "Ana"}, nil
}

func (f *fakeCatalog) ListCourseOfferings(ctx context.Context, filter models.CourseFilter) ([]models.CourseOffering, *models.Pagination, error) {
	f.courseFilter = filter
	return []models.CourseOffering{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeCatalog) GetCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error) {
	return &models.CourseOffering{ID: id, Title: "Algorithms"}, nil
}

func (f *fakeCatalog) ListPrograms(ctx context.Context) ([]string, error) {
	return []string{"CS"}, nil
}

func (f *fakeCatalog) ListLibraryItems(ctx context.Context, filter models.LibraryItemFilter) ([]models.LibraryItem, *models.Pagination, error) {
	f.itemFilter = filter
	return []models.LibraryItem{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeCatalog) GetLibraryItem(ctx context.Context, id int64) (*models.LibraryItem, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "library item not found")
}

func TestCatalogHandlerListStudentsPassesFilters(t *testing.T) {
	catalog := &fakeCatalog{}
	handler := NewCatalogHandler(catalog)
	c, rec := newTestContext(http.MethodGet, "/students?search=an&program=CS&page=2&limit=5", "")

	handler.ListStudents(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StudentFilter{Search: "an", Program: "CS", Page: 2, PageSize: 5}, catalog.studentFilter)
	envelope := decodeEnvelope(t, rec)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","program":"","modality":"","academic_status":"","synced_at":"0001-01-01T00:00:00Z"}]`, string(envelope.Data))
	assert.Equal(t, float64(2), envelope.Pagination["page"])
}

func TestCatalogHandlerListFilters(t *testing.T) {
	catalog := &fakeCatalog{}
	handler := NewCatalogHandler(catalog)

	c, rec := newTestContext(http.MethodGet, "/courses?search=algo&program=CS", "")
	handler.ListCourses(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "algo", catalog.courseFilter.Search)
	assert.Equal(t, "CS", catalog.courseFilter.Program)

	c, rec = newTestContext(http.MethodGet, "/library-items?status=Available", "")
	handler.ListLibraryItems(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Available", catalog.itemFilter.Status)

	c, rec = newTestContext(http.MethodGet, "/courses/programs", "")
	handler.ListPrograms(c)
	assert.JSONEq(t, `["CS"]`, string(decodeEnvelope(t, rec).Data))
}

func TestCatalogHandlerGetByID(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{})

	c, rec := newTestContext(http.MethodGet, "/students/1", "", gin.Param{Key: "id", Value: "1"})
	handler.GetStudent(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/students/9", "", gin.Param{Key: "id", Value: "9"})
	handler.GetStudent(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "student not found", envelope.Error.Message)

	c, rec = newTestContext(http.MethodGet, "/courses/abc", "", gin.Param{Key: "id", Value: "abc"})
	handler.GetCourse(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/library-items/3", "", gin.Param{Key: "id", Value: "3"})
	handler.GetLibraryItem(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogHandlerListError(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{listErr: appErrors.Clone(appErrors.ErrInternal, "failed to list students")})
	c, rec := newTestContext(http.MethodGet, "/students", "")

	handler.ListStudents(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
