package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// CourseRepository persists course offerings and their seat counters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, program, title, seats, synced_at`

// List returns course offerings matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseOffering, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions, args = containsArg(conditions, args, filter.Search, "title")
	}
	if filter.Program != "" {
		args = append(args, filter.Program)
		conditions = append(conditions, fmt.Sprintf("LOWER(program) = LOWER($%d)", len(args)))
	}
	clause := whereClause(conditions)
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM course_offerings%s ORDER BY title ASC, id ASC LIMIT %d OFFSET %d", courseColumns, clause, limit, offset)
	var courses []models.CourseOffering
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM course_offerings"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListPrograms returns the distinct program names offering courses.
func (r *CourseRepository) ListPrograms(ctx context.Context) ([]string, error) {
	var programs []string
	if err := r.db.SelectContext(ctx, &programs, "SELECT DISTINCT program FROM course_offerings WHERE program <> '' ORDER BY program"); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID returns a course by external id. sql.ErrNoRows is returned unwrapped.
func (r *CourseRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CourseOffering, error) {
	var course models.CourseOffering
	query := "SELECT " + courseColumns + " FROM course_offerings WHERE id = $1"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDForUpdate loads a course and locks its row for the rest of the transaction.
func (r *CourseRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CourseOffering, error) {
	var course models.CourseOffering
	query := "SELECT " + courseColumns + " FROM course_offerings WHERE id = $1 FOR UPDATE"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// AdjustSeats adds delta to the seat counter and returns the new value.
func (r *CourseRepository) AdjustSeats(ctx context.Context, exec sqlx.ExtContext, id int64, delta int) (int, error) {
	var seats int
	const query = `UPDATE course_offerings SET seats = seats + $2 WHERE id = $1 RETURNING seats`
	if err := sqlx.GetContext(ctx, target(r.db, exec), &seats, query, id, delta); err != nil {
		return 0, fmt.Errorf("adjust seats for course %d: %w", id, err)
	}
	return seats, nil
}

// Upsert overwrites the course identified by external id, inserting it when absent.
func (r *CourseRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, course *models.CourseOffering) (bool, error) {
	t := target(r.db, exec)
	if course.SyncedAt.IsZero() {
		course.SyncedAt = time.Now().UTC()
	}

	var exists int
	err := sqlx.GetContext(ctx, t, &exists, "SELECT 1 FROM course_offerings WHERE id = $1", course.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup course %d: %w", course.ID, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		const insertQuery = `INSERT INTO course_offerings (id, program, title, seats, synced_at)
VALUES (:id, :program, :title, :seats, :synced_at)`
		if _, err := sqlx.NamedExecContext(ctx, t, insertQuery, course); err != nil {
			return false, fmt.Errorf("insert course %d: %w", course.ID, err)
		}
		return true, nil
	}

	const updateQuery = `UPDATE course_offerings SET program = :program, title = :title, seats = :seats,
synced_at = :synced_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, t, updateQuery, course); err != nil {
		return false, fmt.Errorf("update course %d: %w", course.ID, err)
	}
	return false, nil
}
