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

// StudentRepository handles persistence of cached student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, program, modality, academic_status, synced_at`

// List returns students filtered by name/program with pagination.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions, args = containsArg(conditions, args, filter.Search, "name")
	}
	if filter.Program != "" {
		args = append(args, filter.Program)
		conditions = append(conditions, fmt.Sprintf("LOWER(program) = LOWER($%d)", len(args)))
	}
	clause := whereClause(conditions)
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM students%s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d", studentColumns, clause, limit, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by external id. sql.ErrNoRows is returned unwrapped.
func (r *StudentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	var student models.Student
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDForUpdate loads a student and locks its row, serialising engine writes per student.
func (r *StudentRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	var student models.Student
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1 FOR UPDATE"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Count returns the number of cached students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Upsert overwrites the student identified by external id, inserting it when absent.
// It reports whether a new row was created.
func (r *StudentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (bool, error) {
	t := target(r.db, exec)
	if student.SyncedAt.IsZero() {
		student.SyncedAt = time.Now().UTC()
	}

	var exists int
	err := sqlx.GetContext(ctx, t, &exists, "SELECT 1 FROM students WHERE id = $1", student.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup student %d: %w", student.ID, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		const insertQuery = `INSERT INTO students (id, name, program, modality, academic_status, synced_at)
VALUES (:id, :name, :program, :modality, :academic_status, :synced_at)`
		if _, err := sqlx.NamedExecContext(ctx, t, insertQuery, student); err != nil {
			return false, fmt.Errorf("insert student %d: %w", student.ID, err)
		}
		return true, nil
	}

	const updateQuery = `UPDATE students SET name = :name, program = :program, modality = :modality,
academic_status = :academic_status, synced_at = :synced_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, t, updateQuery, student); err != nil {
		return false, fmt.Errorf("update student %d: %w", student.ID, err)
	}
	return false, nil
}
