package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestCourseRepositoryFindByIDForUpdate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program, title, seats, synced_at FROM course_offerings WHERE id = $1 FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "program", "title", "seats", "synced_at"}).AddRow(10, "CS", "Algorithms", 3, time.Now()))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	course, err := repo.FindByIDForUpdate(context.Background(), tx, 10)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, "Algorithms", course.Title)
	assert.Equal(t, 3, course.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryAdjustSeats(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE course_offerings SET seats = seats + $2 WHERE id = $1 RETURNING seats")).
		WithArgs(10, -1).
		WillReturnRows(sqlmock.NewRows([]string{"seats"}).AddRow(2))

	seats, err := repo.AdjustSeats(context.Background(), nil, 10, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListPrograms(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT program FROM course_offerings")).
		WillReturnRows(sqlmock.NewRows([]string{"program"}).AddRow("CS").AddRow("Law"))

	programs, err := repo.ListPrograms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CS", "Law"}, programs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFilters(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM course_offerings WHERE title ILIKE '%' || $1 || '%' AND LOWER(program) = LOWER($2) ORDER BY title ASC, id ASC LIMIT 5 OFFSET 5")).
		WithArgs("algo", "cs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "program", "title", "seats", "synced_at"}).AddRow(10, "CS", "Algorithms", 3, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_offerings WHERE")).
		WithArgs("algo", "cs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "algo", Program: "cs", Page: 2, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 6, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
