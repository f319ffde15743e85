package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

var studentRowColumns = []string{"id", "name", "program", "modality", "academic_status", "synced_at"}

func TestStudentRepositoryListSearch(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).AddRow(1, "Ana Souza", "CS", "Presencial", "Active", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, program, modality, academic_status, synced_at FROM students WHERE name ILIKE '%' || $1 || '%' ORDER BY name ASC, id ASC LIMIT 20 OFFSET 0")).
		WithArgs("ana").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE name ILIKE '%' || $1 || '%'")).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "ana"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(1), students[0].ID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListPaging(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(program) = LOWER($1) ORDER BY name ASC, id ASC LIMIT 20 OFFSET 40")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE LOWER(program) = LOWER($1)")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Program: "CS", Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertInserts(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec("INSERT INTO students").
		WithArgs(7, "Bruno", "CS", "EAD", "Active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Upsert(context.Background(), nil, &models.Student{ID: 7, Name: "Bruno", Program: "CS", Modality: "EAD", AcademicStatus: "Active"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertUpdates(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("UPDATE students SET name = \\$1").
		WithArgs("Bruno", "CS", "EAD", "Locked", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Upsert(context.Background(), nil, &models.Student{ID: 7, Name: "Bruno", Program: "CS", Modality: "EAD", AcademicStatus: "Locked"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))

	_, err := repo.FindByID(context.Background(), nil, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
