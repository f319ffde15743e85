package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type syncFake struct {
	force  *bool
	result *models.Result
	err    error
	resets int
}

func (f *syncFake) InitializeSystem(ctx context.Context, force bool) (*models.Result, error) {
	f.force = &force
	return f.result, f.err
}

func (f *syncFake) SyncStudent(ctx context.Context, id int64) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: id, Name: "Ana", Program: "CS", AcademicStatus: "Active"}, nil
}

func (f *syncFake) Reset(ctx context.Context) (*models.Result, error) {
	f.resets++
	return models.Succeeded(models.ResultKindReset, "record store cleared."), nil
}

type enrollmentFake struct {
	calls  []string
	period string
	result *models.Result
}

func (f *enrollmentFake) AddCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error) {
	f.calls = append(f.calls, "add")
	f.period = period
	return f.result, nil
}

func (f *enrollmentFake) DropCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error) {
	f.calls = append(f.calls, "drop")
	f.period = period
	return f.result, nil
}

func (f *enrollmentFake) Summary(ctx context.Context, studentID int64, period string) (*models.EnrollmentSummary, error) {
	return &models.EnrollmentSummary{
		StudentID:      studentID,
		Period:         "2024.2",
		ActiveCount:    1,
		RemainingSlots: models.MaxActiveCourses - 1,
		Lines:          []models.EnrollmentLineDetail{{EnrollmentLine: models.EnrollmentLine{CourseID: 10, Active: true}, CourseTitle: "Algorithms"}},
	}, nil
}

func (f *enrollmentFake) ListCourses(ctx context.Context, studentID int64, period string, activeOnly bool) ([]models.EnrollmentLineDetail, error) {
	f.calls = append(f.calls, "list")
	return []models.EnrollmentLineDetail{
		{EnrollmentLine: models.EnrollmentLine{CourseID: 10, Active: true}, CourseTitle: "Algorithms"},
		{EnrollmentLine: models.EnrollmentLine{CourseID: 11, Active: false}, CourseTitle: "Databases"},
	}, nil
}

type reservationFake struct {
	activeOnly bool
	calls      []string
}

func (f *reservationFake) Reserve(ctx context.Context, studentID, itemID int64) (*models.Result, error) {
	f.calls = append(f.calls, "reserve")
	return models.Succeeded(models.ResultKindReserved, "item reserved."), nil
}

func (f *reservationFake) Cancel(ctx context.Context, studentID, itemID int64) (*models.Result, error) {
	f.calls = append(f.calls, "cancel")
	return models.Rejected("reservation not found."), nil
}

func (f *reservationFake) ListReservations(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error) {
	f.activeOnly = activeOnly
	return nil, nil
}

type fixture struct {
	sync         *syncFake
	enrollments  *enrollmentFake
	reservations *reservationFake
	opened       int
	closed       int
}

func newFixture() *fixture {
	return &fixture{
		sync:         &syncFake{result: models.Succeeded(models.ResultKindInitialized, "system initialized. students: 1, courses: 0, library items: 0")},
		enrollments:  &enrollmentFake{result: models.Succeeded(models.ResultKindAdded, "course added.")},
		reservations: &reservationFake{},
	}
}

func (f *fixture) open(ctx context.Context) (*Services, func(), error) {
	f.opened++
	return &Services{Sync: f.sync, Enrollments: f.enrollments, Reservations: f.reservations}, func() { f.closed++ }, nil
}

func tokenIssuer() (TokenIssuer, error) {
	return service.NewTokenService(nil, nil, service.TokenConfig{Secret: "secret", Issuer: "academic-records", Expiry: time.Hour}), nil
}

func execute(t *testing.T, f *fixture, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(f.open, tokenIssuer)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitCommand(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] system initialized.")
	require.NotNil(t, f.sync.force)
	assert.True(t, *f.sync.force)
	assert.Equal(t, 1, f.opened)
	assert.Equal(t, 1, f.closed)
}

func TestInitCommandUpstreamFailureJSON(t *testing.T) {
	f := newFixture()
	f.sync.result = &models.Result{Success: false, Kind: models.ResultKindUpstreamFailure, Message: "failed to fetch external data: timeout"}

	out, err := execute(t, f, "--format", "json", "init")
	require.Error(t, err)
	assert.Equal(t, ExitRejected, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "rejected", resp.Status)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.ResultKindUpstreamFailure), data["kind"])
}

func TestResetRequiresConfirmation(t *testing.T) {
	f := newFixture()

	_, err := execute(t, f, "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Zero(t, f.opened)

	out, err := execute(t, f, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "record store cleared.")
	assert.Equal(t, 1, f.sync.resets)
}

func TestSyncStudentCommand(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "sync-student", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "synced student 7: Ana")

	_, err = execute(t, f, "sync-student", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	f.sync.err = appErrors.Clone(appErrors.ErrNotFound, "student 8 not found upstream")
	out, err = execute(t, f, "--format", "json", "sync-student", "8")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, appErrors.ErrNotFound.Code, resp.Error.Code)
}

func TestCoursesCommands(t *testing.T) {
	f := newFixture()

	_, err := execute(t, f, "courses", "add", "--student", "1", "--course", "10", "--period", "2025.1")
	require.NoError(t, err)
	assert.Equal(t, "2025.1", f.enrollments.period)

	f.enrollments.result = models.Rejected("course has no available seats.")
	out, err := execute(t, f, "courses", "drop", "--student", "1", "--course", "10")
	assert.Equal(t, ExitRejected, GetExitCode(err))
	assert.Contains(t, out, "[rejected] course has no available seats.")

	_, err = execute(t, f, "courses", "add", "--student", "1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = execute(t, f, "courses", "list", "--student", "1", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "1 active, 4 slots left")
	assert.Contains(t, out, "Databases")
	assert.Contains(t, out, "dropped")
	assert.Equal(t, []string{"add", "drop", "list"}, f.enrollments.calls)
}

func TestReservationsCommands(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "reservations", "add", "--student", "1", "--item", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "item reserved.")

	_, err = execute(t, f, "reservations", "cancel", "--student", "1", "--item", "30")
	assert.Equal(t, ExitRejected, GetExitCode(err))

	out, err = execute(t, f, "reservations", "list", "--student", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "no reservations")
	assert.True(t, f.reservations.activeOnly)
	assert.Equal(t, []string{"reserve", "cancel"}, f.reservations.calls)
}

func TestTokenCommand(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "--format", "json", "token", "--subject", "ops", "--role", "admin")
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["access_token"])
	assert.Zero(t, f.opened)

	_, err = execute(t, f, "token", "--subject", "ops", "--role", "student")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, newFixture(), "--format", "yaml", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitRejected, GetExitCode(&ExitError{Code: ExitRejected, Message: "no"}))
}
