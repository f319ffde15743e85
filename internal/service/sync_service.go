package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/gateway"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// MsgAlreadyInitialized is returned when an unforced import finds cached records.
const MsgAlreadyInitialized = "system already initialized."

type externalFetcher interface {
	FetchAllExternalData(ctx context.Context) gateway.ExternalData
	FetchStudent(ctx context.Context, id int64) (gateway.Record, error)
}

type syncStudentStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (bool, error)
	Count(ctx context.Context) (int, error)
}

type syncCourseStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, course *models.CourseOffering) (bool, error)
}

type syncItemStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, item *models.LibraryItem) (bool, error)
	Count(ctx context.Context) (int, error)
}

type systemStore interface {
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, exec sqlx.ExtContext, key, value string) error
	Reset(ctx context.Context, exec sqlx.ExtContext) error
}

// SyncService imports upstream records into the local store.
type SyncService struct {
	fetcher  externalFetcher
	students syncStudentStore
	courses  syncCourseStore
	items    syncItemStore
	system   systemStore
	tx       txProvider
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncService wires the importer.
func NewSyncService(
	fetcher externalFetcher,
	students syncStudentStore,
	courses syncCourseStore,
	items syncItemStore,
	system systemStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		fetcher:  fetcher,
		students: students,
		courses:  courses,
		items:    items,
		system:   system,
		tx:       tx,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// InitializeSystem fetches every provider once and upserts the records in one transaction.
// Without force it is a no-op when students or library items are already cached.
// When no provider returns data nothing is written; partial provider failures are
// reported as warnings while the reachable providers are imported.
func (s *SyncService) InitializeSystem(ctx context.Context, force bool) (result *models.Result, err error) {
	if !force {
		initialized, err := s.initialized(ctx)
		if err != nil {
			return nil, err
		}
		if initialized {
			s.logger.Info("import skipped, store already populated")
			return models.Succeeded(models.ResultKindSkipped, MsgAlreadyInitialized), nil
		}
	}

	s.logger.Info("fetching upstream records", zap.Bool("force", force))
	data := s.fetcher.FetchAllExternalData(ctx)
	if !data.Success {
		reason := strings.Join(data.Errors, "; ")
		if reason == "" {
			reason = "no records returned"
		}
		s.logger.Error("upstream import failed", zap.Strings("errors", data.Errors))
		return &models.Result{Success: false, Kind: models.ResultKindUpstreamFailure, Message: "failed to fetch external data: " + reason}, nil
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	started := s.now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
		s.metrics.ObserveTransaction("initialize_system", time.Since(started))
	}()

	stats, err := s.upsertAll(ctx, tx, data)
	if err != nil {
		return nil, err
	}
	if err = s.system.SetState(ctx, tx, repository.StateInitializedAt, s.now().UTC().Format(time.RFC3339)); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record initialization")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
		return nil, err
	}

	s.cache.InvalidateCatalog(ctx)
	s.metrics.RecordImport(stats)

	msg := fmt.Sprintf("system initialized. students: %d, courses: %d, library items: %d", stats.Students, stats.Courses, stats.Items)
	s.logger.Info("upstream import complete",
		zap.Int("students", stats.Students),
		zap.Int("courses", stats.Courses),
		zap.Int("library_items", stats.Items),
		zap.Int("warnings", len(data.Errors)),
	)
	if len(data.Errors) > 0 {
		msg += " | warnings: " + strings.Join(data.Errors, "; ")
	}
	return models.Succeeded(models.ResultKindInitialized, msg), nil
}

// SyncStudent refreshes one student from the students provider.
func (s *SyncService) SyncStudent(ctx context.Context, id int64) (student *models.Student, err error) {
	record, err := s.fetcher.FetchStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	student, err = mapStudent(record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid student record")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created, err := s.students.Upsert(ctx, tx, student)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit student")
		return nil, err
	}

	s.cache.InvalidateCatalog(ctx, CatalogStudents)
	s.logger.Info("student synchronised", zap.Int64("student_id", student.ID), zap.Bool("created", created))
	return student, nil
}

// Reset deletes every local record, including enrollments and reservations.
func (s *SyncService) Reset(ctx context.Context) (result *models.Result, err error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.system.Reset(ctx, tx); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset store")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reset")
		return nil, err
	}

	s.cache.InvalidateCatalog(ctx)
	s.logger.Warn("record store reset")
	return models.Succeeded(models.ResultKindReset, "record store cleared."), nil
}

func (s *SyncService) initialized(ctx context.Context) (bool, error) {
	marker, err := s.system.GetState(ctx, repository.StateInitializedAt)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read system state")
	}
	if marker != "" {
		return true, nil
	}
	students, err := s.students.Count(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if students > 0 {
		return true, nil
	}
	items, err := s.items.Count(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count library items")
	}
	return items > 0, nil
}

func (s *SyncService) upsertAll(ctx context.Context, exec sqlx.ExtContext, data gateway.ExternalData) (models.SyncStats, error) {
	var stats models.SyncStats
	for i, rec := range data.Students {
		student, err := mapStudent(rec)
		if err != nil {
			return stats, invalidRecord("student", i, err)
		}
		if _, err := s.students.Upsert(ctx, exec, student); err != nil {
			return stats, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store students")
		}
		stats.Students++
	}
	for i, rec := range data.Courses {
		course, err := mapCourse(rec)
		if err != nil {
			return stats, invalidRecord("course", i, err)
		}
		if _, err := s.courses.Upsert(ctx, exec, course); err != nil {
			return stats, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store courses")
		}
		stats.Courses++
	}
	for i, rec := range data.Items {
		item, err := mapItem(rec)
		if err != nil {
			return stats, invalidRecord("library item", i, err)
		}
		if _, err := s.items.Upsert(ctx, exec, item); err != nil {
			return stats, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store library items")
		}
		stats.Items++
	}
	return stats, nil
}

func invalidRecord(kind string, index int, err error) error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("invalid %s record at index %d", kind, index))
}
