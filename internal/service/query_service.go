package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type studentCatalog interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
}

type courseCatalog interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseOffering, int, error)
	ListPrograms(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CourseOffering, error)
}

type itemCatalog interface {
	List(ctx context.Context, filter models.LibraryItemFilter) ([]models.LibraryItem, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LibraryItem, error)
}

// QueryService serves read-only listings over the local record store.
type QueryService struct {
	students studentCatalog
	courses  courseCatalog
	items    itemCatalog
	cache    *CacheService
	logger   *zap.Logger
}

// NewQueryService constructs the query service. cache may be nil.
func NewQueryService(students studentCatalog, courses courseCatalog, items itemCatalog, cache *CacheService, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{students: students, courses: courses, items: items, cache: cache, logger: logger}
}

type cachedPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListStudents returns students matching a case-insensitive name search.
func (s *QueryService) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	students, total, err := cachedList(ctx, s, CatalogKey(CatalogStudents, filter), func() ([]models.Student, int, error) {
		return s.students.List(ctx, filter)
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetStudent returns a student by external id.
func (s *QueryService) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, nil, id)
	if err != nil {
		return nil, appErrors.NotFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}

// ListCourseOfferings returns courses matching a title search and optional program.
func (s *QueryService) ListCourseOfferings(ctx context.Context, filter models.CourseFilter) ([]models.CourseOffering, *models.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Program = strings.TrimSpace(filter.Program)
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	courses, total, err := cachedList(ctx, s, CatalogKey(CatalogCourses, filter), func() ([]models.CourseOffering, int, error) {
		return s.courses.List(ctx, filter)
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetCourseOffering returns a course by external id.
func (s *QueryService) GetCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error) {
	course, err := s.courses.FindByID(ctx, nil, id)
	if err != nil {
		return nil, appErrors.NotFoundOr(err, "course not found", "failed to load course")
	}
	return course, nil
}

// ListPrograms returns the distinct program names that offer courses.
func (s *QueryService) ListPrograms(ctx context.Context) ([]string, error) {
	programs, _, err := cachedList(ctx, s, CatalogKey(CatalogPrograms, nil), func() ([]string, int, error) {
		list, err := s.courses.ListPrograms(ctx)
		return list, len(list), err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// ListLibraryItems returns items matching a title/author search and optional status.
func (s *QueryService) ListLibraryItems(ctx context.Context, filter models.LibraryItemFilter) ([]models.LibraryItem, *models.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Status = strings.TrimSpace(filter.Status)
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := cachedList(ctx, s, CatalogKey(CatalogItems, filter), func() ([]models.LibraryItem, int, error) {
		return s.items.List(ctx, filter)
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list library items")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetLibraryItem returns a library item by external id.
func (s *QueryService) GetLibraryItem(ctx context.Context, id int64) (*models.LibraryItem, error) {
	item, err := s.items.FindByID(ctx, nil, id)
	if err != nil {
		return nil, appErrors.NotFoundOr(err, "library item not found", "failed to load library item")
	}
	return item, nil
}

// cachedList serves a listing from cache when possible. Cache errors fall through to load.
func cachedList[T any](ctx context.Context, s *QueryService, key string, load func() ([]T, int, error)) ([]T, int, error) {
	var page cachedPage[T]
	if hit, err := s.cache.Get(ctx, key, &page); err == nil && hit {
		return page.Items, page.Total, nil
	}
	list, total, err := load()
	if err != nil {
		return nil, 0, err
	}
	if list == nil {
		list = []T{}
	}
	_ = s.cache.Set(ctx, key, cachedPage[T]{Items: list, Total: total}, 0)
	return list, total, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
