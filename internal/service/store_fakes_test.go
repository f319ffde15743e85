package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// memStore backs every repository fake with shared maps. It ignores the exec
// argument; transaction boundaries are asserted through the sqlmock provider.
type memStore struct {
	mu           sync.Mutex
	students     map[int64]*models.Student
	courses      map[int64]*models.CourseOffering
	items        map[int64]*models.LibraryItem
	enrollments  []*models.Enrollment
	lines        []*models.EnrollmentLine
	reservations []*models.Reservation
	state        map[string]string
	seq          int64
	clock        time.Time
	failOn       map[string]error
	writes       []sqlx.ExtContext
}

func newMemStore() *memStore {
	return &memStore{
		students: map[int64]*models.Student{},
		courses:  map[int64]*models.CourseOffering{},
		items:    map[int64]*models.LibraryItem{},
		state:    map[string]string{},
		clock:    time.Date(2024, 8, 1, 8, 0, 0, 0, time.UTC),
		failOn:   map[string]error{},
	}
}

func (m *memStore) next() (int64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return m.seq, m.clock
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

// record keeps the executor each mutating call received.
func (m *memStore) record(exec sqlx.ExtContext) {
	m.writes = append(m.writes, exec)
}

func (m *memStore) addStudent(id int64, program, status string) {
	m.students[id] = &models.Student{ID: id, Name: "Student", Program: program, AcademicStatus: status}
}

func (m *memStore) addCourse(id int64, program, title string, seats int) {
	m.courses[id] = &models.CourseOffering{ID: id, Program: program, Title: title, Seats: seats}
}

func (m *memStore) addItem(id int64, title, status string) {
	m.items[id] = &models.LibraryItem{ID: id, Title: title, Author: "Author", Status: status}
}

func (m *memStore) linesFor(enrollmentID int64) []*models.EnrollmentLine {
	var out []*models.EnrollmentLine
	for _, l := range m.lines {
		if l.EnrollmentID == enrollmentID {
			out = append(out, l)
		}
	}
	return out
}

type studentFake struct{ *memStore }

func (f studentFake) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("student.find"); err != nil {
		return nil, err
	}
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f studentFake) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	return f.FindByID(ctx, exec, id)
}

type courseFake struct{ *memStore }

func (f courseFake) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CourseOffering, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f courseFake) AdjustSeats(ctx context.Context, exec sqlx.ExtContext, id int64, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(exec)
	if err := f.fail("course.adjust"); err != nil {
		return 0, err
	}
	c, ok := f.courses[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	c.Seats += delta
	return c.Seats, nil
}

type itemFake struct{ *memStore }

func (f itemFake) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LibraryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (f itemFake) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	it.Status = status
	return nil
}

type enrollmentFake struct{ *memStore }

func (f enrollmentFake) FindActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.enrollments) - 1; i >= 0; i-- {
		e := f.enrollments[i]
		if e.StudentID == studentID && e.Period == period && e.Active {
			cp := *e
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f enrollmentFake) ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID int64, period string) (bool, error) {
	_, err := f.FindActive(ctx, exec, studentID, period)
	return err == nil, nil
}

func (f enrollmentFake) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(exec)
	id, now := f.next()
	enrollment.ID, enrollment.CreatedAt, enrollment.UpdatedAt = id, now, now
	cp := *enrollment
	f.enrollments = append(f.enrollments, &cp)
	return nil
}

func (f enrollmentFake) Touch(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	return nil
}

func (f enrollmentFake) CountActiveLines(ctx context.Context, exec sqlx.ExtContext, enrollmentID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, l := range f.linesFor(enrollmentID) {
		if l.Active {
			count++
		}
	}
	return count, nil
}

func (f enrollmentFake) FindLine(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID int64) (*models.EnrollmentLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.linesFor(enrollmentID) {
		if l.CourseID == courseID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f enrollmentFake) CreateLine(ctx context.Context, exec sqlx.ExtContext, line *models.EnrollmentLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(exec)
	if err := f.fail("line.create"); err != nil {
		return err
	}
	id, now := f.next()
	line.ID, line.CreatedAt, line.UpdatedAt = id, now, now
	cp := *line
	f.lines = append(f.lines, &cp)
	return nil
}

func (f enrollmentFake) SetLineActive(ctx context.Context, exec sqlx.ExtContext, lineID int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(exec)
	for _, l := range f.lines {
		if l.ID == lineID {
			l.Active = active
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f enrollmentFake) ListLines(ctx context.Context, enrollmentID int64, activeOnly bool) ([]models.EnrollmentLineDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EnrollmentLineDetail
	for _, l := range f.linesFor(enrollmentID) {
		if activeOnly && !l.Active {
			continue
		}
		detail := models.EnrollmentLineDetail{EnrollmentLine: *l}
		if c, ok := f.courses[l.CourseID]; ok {
			detail.CourseTitle, detail.CourseProgram, detail.CourseSeats = c.Title, c.Program, c.Seats
		}
		out = append(out, detail)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type reservationFake struct{ *memStore }

func (f reservationFake) Find(ctx context.Context, exec sqlx.ExtContext, studentID, itemID int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.StudentID == studentID && r.ItemID == itemID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f reservationFake) Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, now := f.next()
	reservation.ID, reservation.CreatedAt, reservation.UpdatedAt = id, now, now
	cp := *reservation
	f.reservations = append(f.reservations, &cp)
	return nil
}

func (f reservationFake) SetActive(ctx context.Context, exec sqlx.ExtContext, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ID == id {
			r.Active = active
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f reservationFake) ListByStudent(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReservationDetail
	for i := len(f.reservations) - 1; i >= 0; i-- {
		r := f.reservations[i]
		if r.StudentID != studentID || (activeOnly && !r.Active) {
			continue
		}
		detail := models.ReservationDetail{Reservation: *r}
		if it, ok := f.items[r.ItemID]; ok {
			detail.ItemTitle, detail.ItemAuthor, detail.ItemStatus = it.Title, it.Author, it.Status
		}
		out = append(out, detail)
	}
	return out, nil
}
