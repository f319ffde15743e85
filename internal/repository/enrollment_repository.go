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

// EnrollmentRepository handles persistence of enrollment envelopes and their lines.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const (
	enrollmentColumns     = `id, student_id, period, active, created_at, updated_at`
	enrollmentLineColumns = `id, enrollment_id, course_id, active, created_at, updated_at`
)

// FindActive returns the active enrollment for a student and period.
// sql.ErrNoRows is returned unwrapped when none exists.
func (r *EnrollmentRepository) FindActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (*models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE student_id = $1 AND period = $2 AND active ORDER BY created_at DESC LIMIT 1"
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, target(r.db, exec), &enrollment, query, studentID, period); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive reports whether an active enrollment exists for the student and period.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (bool, error) {
	const query = "SELECT 1 FROM enrollments WHERE student_id = $1 AND period = $2 AND active LIMIT 1"
	var exists int
	if err := sqlx.GetContext(ctx, target(r.db, exec), &exists, query, studentID, period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create inserts a new enrollment and fills in its generated id.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (student_id, period, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, target(r.db, exec), &enrollment.ID, query,
		enrollment.StudentID, enrollment.Period, enrollment.Active, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Touch bumps the enrollment's updated_at timestamp.
func (r *EnrollmentRepository) Touch(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := target(r.db, exec).ExecContext(ctx, `UPDATE enrollments SET updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch enrollment %d: %w", id, err)
	}
	return nil
}

// CountActiveLines returns how many active lines the enrollment holds.
func (r *EnrollmentRepository) CountActiveLines(ctx context.Context, exec sqlx.ExtContext, enrollmentID int64) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM enrollment_lines WHERE enrollment_id = $1 AND active`
	if err := sqlx.GetContext(ctx, target(r.db, exec), &total, query, enrollmentID); err != nil {
		return 0, fmt.Errorf("count active lines: %w", err)
	}
	return total, nil
}

// FindLine returns the line for (enrollment, course) regardless of its active flag.
// sql.ErrNoRows is returned unwrapped when the pair was never added.
func (r *EnrollmentRepository) FindLine(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID int64) (*models.EnrollmentLine, error) {
	query := "SELECT " + enrollmentLineColumns + " FROM enrollment_lines WHERE enrollment_id = $1 AND course_id = $2"
	var line models.EnrollmentLine
	if err := sqlx.GetContext(ctx, target(r.db, exec), &line, query, enrollmentID, courseID); err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine inserts a new enrollment line and fills in its generated id.
func (r *EnrollmentRepository) CreateLine(ctx context.Context, exec sqlx.ExtContext, line *models.EnrollmentLine) error {
	now := time.Now().UTC()
	if line.CreatedAt.IsZero() {
		line.CreatedAt = now
	}
	line.UpdatedAt = now
	const query = `INSERT INTO enrollment_lines (enrollment_id, course_id, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, target(r.db, exec), &line.ID, query,
		line.EnrollmentID, line.CourseID, line.Active, line.CreatedAt, line.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment line: %w", err)
	}
	return nil
}

// SetLineActive flips the active flag of a line.
func (r *EnrollmentRepository) SetLineActive(ctx context.Context, exec sqlx.ExtContext, lineID int64, active bool) error {
	const query = `UPDATE enrollment_lines SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := target(r.db, exec).ExecContext(ctx, query, lineID, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set enrollment line %d active=%t: %w", lineID, active, err)
	}
	return nil
}

// ListLines returns the enrollment's lines joined with their course, newest first.
func (r *EnrollmentRepository) ListLines(ctx context.Context, enrollmentID int64, activeOnly bool) ([]models.EnrollmentLineDetail, error) {
	query := `SELECT l.id, l.enrollment_id, l.course_id, l.active, l.created_at, l.updated_at,
        c.title AS course_title, c.program AS course_program, c.seats AS course_seats
        FROM enrollment_lines l
        JOIN course_offerings c ON c.id = l.course_id
        WHERE l.enrollment_id = $1`
	if activeOnly {
		query += " AND l.active"
	}
	query += " ORDER BY l.created_at DESC, l.id DESC"
	var lines []models.EnrollmentLineDetail
	if err := r.db.SelectContext(ctx, &lines, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment lines: %w", err)
	}
	return lines, nil
}
