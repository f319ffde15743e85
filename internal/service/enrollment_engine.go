package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// Rejection messages returned by the enrollment engine.
const (
	MsgStudentLocked      = "student has locked academic status."
	MsgProgramMismatch    = "course does not belong to the student's program."
	MsgNoSeats            = "course has no available seats."
	MsgNoActiveEnrollment = "no active enrollment found."
	MsgCourseNotEnrolled  = "course is not in the enrollment."
	MsgCourseDuplicate    = "course already in the enrollment."
)

var msgCapacityReached = fmt.Sprintf("maximum of %d active courses already reached.", models.MaxActiveCourses)

type engineStudentReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
}

type engineCourseStore interface {
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CourseOffering, error)
	AdjustSeats(ctx context.Context, exec sqlx.ExtContext, id int64, delta int) (int, error)
}

type enrollmentStore interface {
	FindActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	Touch(ctx context.Context, exec sqlx.ExtContext, id int64) error
	CountActiveLines(ctx context.Context, exec sqlx.ExtContext, enrollmentID int64) (int, error)
	FindLine(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID int64) (*models.EnrollmentLine, error)
	CreateLine(ctx context.Context, exec sqlx.ExtContext, line *models.EnrollmentLine) error
	SetLineActive(ctx context.Context, exec sqlx.ExtContext, lineID int64, active bool) error
	ListLines(ctx context.Context, enrollmentID int64, activeOnly bool) ([]models.EnrollmentLineDetail, error)
}

// EnrollmentEngine adds and drops courses under seat and capacity rules.
// Every mutating call runs in one transaction; rejections roll it back.
type EnrollmentEngine struct {
	students    engineStudentReader
	courses     engineCourseStore
	enrollments enrollmentStore
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	rules       AcademicRules
	logger      *zap.Logger
}

// NewEnrollmentEngine wires the engine dependencies.
func NewEnrollmentEngine(
	students engineStudentReader,
	courses engineCourseStore,
	enrollments enrollmentStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	rules AcademicRules,
	logger *zap.Logger,
) *EnrollmentEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentEngine{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		rules:       rules.withDefaults(),
		logger:      logger,
	}
}

// GetOrCreateEnrollment returns the student's active enrollment for period, creating it when absent.
func (e *EnrollmentEngine) GetOrCreateEnrollment(ctx context.Context, studentID int64, period string) (enrollment *models.Enrollment, err error) {
	period = e.rules.period(period)
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = e.students.FindByIDForUpdate(ctx, tx, studentID); err != nil {
		err = appErrors.NotFoundOr(err, "student not found", "failed to load student")
		return nil, err
	}
	if enrollment, err = e.getOrCreate(ctx, tx, studentID, period); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment")
		return nil, err
	}
	return enrollment, nil
}

// AddCourse enrolls the student in a course for period.
func (e *EnrollmentEngine) AddCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error) {
	const op = "add_course"
	period = e.rules.period(period)
	started := time.Now()
	tx, err := e.begin(ctx)
	if err != nil {
		return e.fail(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
		e.metrics.ObserveTransaction(op, time.Since(started))
	}()

	student, err := e.students.FindByIDForUpdate(ctx, tx, studentID)
	if err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "student not found", "failed to load student"))
	}
	course, err := e.courses.FindByIDForUpdate(ctx, tx, courseID)
	if err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "course not found", "failed to load course"))
	}

	if e.rules.IsLocked(student.AcademicStatus) {
		return e.reject(op, studentID, courseID, MsgStudentLocked), nil
	}
	if !sameToken(course.Program, student.Program) {
		return e.reject(op, studentID, courseID, MsgProgramMismatch), nil
	}
	if course.Seats <= 0 {
		return e.reject(op, studentID, courseID, MsgNoSeats), nil
	}

	enrollment, err := e.getOrCreate(ctx, tx, studentID, period)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrValidation.Code {
			return e.reject(op, studentID, courseID, "failed to open enrollment: "+appErr.Message), nil
		}
		return e.fail(op, err)
	}

	active, err := e.enrollments.CountActiveLines(ctx, tx, enrollment.ID)
	if err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollment lines"))
	}
	if active >= models.MaxActiveCourses {
		return e.reject(op, studentID, courseID, msgCapacityReached), nil
	}

	kind := models.ResultKindAdded
	line, err := e.enrollments.FindLine(ctx, tx, enrollment.ID, courseID)
	switch {
	case err == nil && line.Active:
		return e.reject(op, studentID, courseID, MsgCourseDuplicate), nil
	case err == nil:
		if err = e.enrollments.SetLineActive(ctx, tx, line.ID, true); err != nil {
			return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate course"))
		}
		kind = models.ResultKindReactivated
	case errors.Is(err, sql.ErrNoRows):
		line = &models.EnrollmentLine{EnrollmentID: enrollment.ID, CourseID: courseID, Active: true}
		if err = e.enrollments.CreateLine(ctx, tx, line); err != nil {
			return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add course"))
		}
	default:
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment line"))
	}

	seats, err := e.courses.AdjustSeats(ctx, tx, courseID, -1)
	if err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update seats"))
	}
	if err = e.enrollments.Touch(ctx, tx, enrollment.ID); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment"))
	}
	if err = tx.Commit(); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment"))
	}
	committed = true

	e.cache.InvalidateCatalog(ctx, CatalogCourses)
	e.metrics.RecordEngineOperation(op, OutcomeSucceeded)
	e.logger.Info("course added",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int64("enrollment_id", enrollment.ID),
		zap.String("kind", string(kind)),
		zap.Int("seats_left", seats),
	)

	msg := fmt.Sprintf("course '%s' added to enrollment #%d.", course.Title, enrollment.ID)
	if kind == models.ResultKindReactivated {
		msg = fmt.Sprintf("course '%s' reactivated in enrollment #%d.", course.Title, enrollment.ID)
	}
	return models.Succeeded(kind, msg), nil
}

// DropCourse deactivates the course line and returns its seat.
func (e *EnrollmentEngine) DropCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error) {
	const op = "drop_course"
	period = e.rules.period(period)
	started := time.Now()
	tx, err := e.begin(ctx)
	if err != nil {
		return e.fail(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
		e.metrics.ObserveTransaction(op, time.Since(started))
	}()

	if _, err = e.students.FindByIDForUpdate(ctx, tx, studentID); err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "student not found", "failed to load student"))
	}
	course, err := e.courses.FindByIDForUpdate(ctx, tx, courseID)
	if err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "course not found", "failed to load course"))
	}

	enrollment, err := e.enrollments.FindActive(ctx, tx, studentID, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e.reject(op, studentID, courseID, MsgNoActiveEnrollment), nil
		}
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment"))
	}

	line, err := e.enrollments.FindLine(ctx, tx, enrollment.ID, courseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment line"))
	}
	if line == nil || !line.Active {
		return e.reject(op, studentID, courseID, MsgCourseNotEnrolled), nil
	}

	if err = e.enrollments.SetLineActive(ctx, tx, line.ID, false); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove course"))
	}
	seats, err := e.courses.AdjustSeats(ctx, tx, courseID, 1)
	if err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update seats"))
	}
	if err = e.enrollments.Touch(ctx, tx, enrollment.ID); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment"))
	}
	if err = tx.Commit(); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment"))
	}
	committed = true

	e.cache.InvalidateCatalog(ctx, CatalogCourses)
	e.metrics.RecordEngineOperation(op, OutcomeSucceeded)
	e.logger.Info("course dropped",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int("seats_left", seats),
	)

	return models.Succeeded(models.ResultKindRemoved, fmt.Sprintf("course '%s' removed from enrollment #%d.", course.Title, enrollment.ID)), nil
}

// ListCourses returns the lines of the student's active enrollment for period, newest first.
// It returns an empty slice when no enrollment exists.
func (e *EnrollmentEngine) ListCourses(ctx context.Context, studentID int64, period string, activeOnly bool) ([]models.EnrollmentLineDetail, error) {
	enrollment, err := e.GetEnrollment(ctx, studentID, period)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return []models.EnrollmentLineDetail{}, nil
	}
	lines, err := e.enrollments.ListLines(ctx, enrollment.ID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment courses")
	}
	if lines == nil {
		lines = []models.EnrollmentLineDetail{}
	}
	return lines, nil
}

// GetEnrollment returns the active enrollment for period, or nil when there is none.
func (e *EnrollmentEngine) GetEnrollment(ctx context.Context, studentID int64, period string) (*models.Enrollment, error) {
	period = e.rules.period(period)
	if _, err := e.students.FindByID(ctx, nil, studentID); err != nil {
		return nil, appErrors.NotFoundOr(err, "student not found", "failed to load student")
	}
	enrollment, err := e.enrollments.FindActive(ctx, nil, studentID, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Summary reports the active enrollment with its active lines and remaining capacity.
func (e *EnrollmentEngine) Summary(ctx context.Context, studentID int64, period string) (*models.EnrollmentSummary, error) {
	period = e.rules.period(period)
	summary := &models.EnrollmentSummary{
		StudentID:      studentID,
		Period:         period,
		Lines:          []models.EnrollmentLineDetail{},
		RemainingSlots: models.MaxActiveCourses,
	}
	enrollment, err := e.GetEnrollment(ctx, studentID, period)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return summary, nil
	}
	lines, err := e.enrollments.ListLines(ctx, enrollment.ID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment courses")
	}
	summary.Enrollment = enrollment
	if lines != nil {
		summary.Lines = lines
	}
	summary.ActiveCount = len(summary.Lines)
	summary.RemainingSlots = models.MaxActiveCourses - summary.ActiveCount
	if summary.RemainingSlots < 0 {
		summary.RemainingSlots = 0
	}
	return summary, nil
}

// getOrCreate resolves the active enrollment inside exec. A concurrent active
// enrollment detected right before insert yields a validation error.
func (e *EnrollmentEngine) getOrCreate(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (*models.Enrollment, error) {
	enrollment, err := e.enrollments.FindActive(ctx, exec, studentID, period)
	if err == nil {
		return enrollment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	exists, err := e.enrollments.ExistsActive(ctx, exec, studentID, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an active enrollment already exists for this period")
	}

	enrollment = &models.Enrollment{StudentID: studentID, Period: period, Active: true}
	if err := e.enrollments.Create(ctx, exec, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	e.logger.Debug("enrollment opened", zap.Int64("student_id", studentID), zap.String("period", period), zap.Int64("enrollment_id", enrollment.ID))
	return enrollment, nil
}

func (e *EnrollmentEngine) begin(ctx context.Context) (*sqlx.Tx, error) {
	if e.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := e.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	return tx, nil
}

func (e *EnrollmentEngine) reject(op string, studentID, courseID int64, message string) *models.Result {
	e.metrics.RecordEngineOperation(op, OutcomeRejected)
	e.logger.Info("enrollment rejected",
		zap.String("operation", op),
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.String("reason", message),
	)
	return models.Rejected(message)
}

func (e *EnrollmentEngine) fail(op string, err error) (*models.Result, error) {
	e.metrics.RecordEngineOperation(op, OutcomeFailed)
	return nil, err
}
