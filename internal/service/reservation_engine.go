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

// Rejection messages returned by the reservation engine.
const (
	MsgItemUnavailable     = "item is not available for reservation."
	MsgReservationExists   = "an active reservation already exists for this item."
	MsgReservationNotFound = "reservation not found."
)

type itemStore interface {
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LibraryItem, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status string) error
}

type reservationStore interface {
	Find(ctx context.Context, exec sqlx.ExtContext, studentID, itemID int64) (*models.Reservation, error)
	Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error
	SetActive(ctx context.Context, exec sqlx.ExtContext, id int64, active bool) error
	ListByStudent(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error)
}

// ReservationEngine reserves and releases library items, mirroring the claim on the item status.
type ReservationEngine struct {
	students     engineStudentReader
	items        itemStore
	reservations reservationStore
	tx           txProvider
	cache        *CacheService
	metrics      *MetricsService
	rules        AcademicRules
	logger       *zap.Logger
}

// NewReservationEngine wires the engine dependencies.
func NewReservationEngine(
	students engineStudentReader,
	items itemStore,
	reservations reservationStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	rules AcademicRules,
	logger *zap.Logger,
) *ReservationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationEngine{
		students:     students,
		items:        items,
		reservations: reservations,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		rules:        rules.withDefaults(),
		logger:       logger,
	}
}

// Reserve claims an available item for the student.
func (e *ReservationEngine) Reserve(ctx context.Context, studentID, itemID int64) (*models.Result, error) {
	const op = "reserve"
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

	if _, err = e.students.FindByID(ctx, tx, studentID); err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "student not found", "failed to load student"))
	}
	item, err := e.items.FindByIDForUpdate(ctx, tx, itemID)
	if err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "library item not found", "failed to load library item"))
	}

	if !e.rules.IsAvailable(item.Status) {
		return e.reject(op, studentID, itemID, MsgItemUnavailable), nil
	}

	kind := models.ResultKindReserved
	reservation, err := e.reservations.Find(ctx, tx, studentID, itemID)
	switch {
	case err == nil && reservation.Active:
		return e.reject(op, studentID, itemID, MsgReservationExists), nil
	case err == nil:
		if err = e.reservations.SetActive(ctx, tx, reservation.ID, true); err != nil {
			return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate reservation"))
		}
		kind = models.ResultKindReactivated
	case errors.Is(err, sql.ErrNoRows):
		reservation = &models.Reservation{StudentID: studentID, ItemID: itemID, Active: true}
		if err = e.reservations.Create(ctx, tx, reservation); err != nil {
			return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation"))
		}
	default:
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation"))
	}

	if err = e.items.UpdateStatus(ctx, tx, itemID, e.rules.ItemStatusReserved); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item status"))
	}
	if err = tx.Commit(); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reservation"))
	}
	committed = true

	e.cache.InvalidateCatalog(ctx, CatalogItems)
	e.metrics.RecordEngineOperation(op, OutcomeSucceeded)
	e.logger.Info("item reserved",
		zap.Int64("student_id", studentID),
		zap.Int64("item_id", itemID),
		zap.Int64("reservation_id", reservation.ID),
		zap.String("kind", string(kind)),
	)

	if kind == models.ResultKindReactivated {
		return models.Succeeded(kind, fmt.Sprintf("reservation for '%s' reactivated.", item.Title)), nil
	}
	return models.Succeeded(kind, fmt.Sprintf("item '%s' reserved.", item.Title)), nil
}

// Cancel releases the student's active reservation and makes the item available again.
func (e *ReservationEngine) Cancel(ctx context.Context, studentID, itemID int64) (*models.Result, error) {
	const op = "cancel_reservation"
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

	if _, err = e.students.FindByID(ctx, tx, studentID); err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "student not found", "failed to load student"))
	}
	item, err := e.items.FindByIDForUpdate(ctx, tx, itemID)
	if err != nil {
		return e.fail(op, appErrors.NotFoundOr(err, "library item not found", "failed to load library item"))
	}

	reservation, err := e.reservations.Find(ctx, tx, studentID, itemID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation"))
	}
	if reservation == nil || !reservation.Active {
		return e.reject(op, studentID, itemID, MsgReservationNotFound), nil
	}

	if err = e.reservations.SetActive(ctx, tx, reservation.ID, false); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation"))
	}
	if err = e.items.UpdateStatus(ctx, tx, itemID, e.rules.ItemStatusAvailable()); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item status"))
	}
	if err = tx.Commit(); err != nil {
		return e.fail(op, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit cancellation"))
	}
	committed = true

	e.cache.InvalidateCatalog(ctx, CatalogItems)
	e.metrics.RecordEngineOperation(op, OutcomeSucceeded)
	e.logger.Info("reservation cancelled",
		zap.Int64("student_id", studentID),
		zap.Int64("item_id", itemID),
		zap.Int64("reservation_id", reservation.ID),
	)

	return models.Succeeded(models.ResultKindCancelled, fmt.Sprintf("reservation for '%s' cancelled.", item.Title)), nil
}

// ListReservations returns the student's reservations joined with their items, newest first.
func (e *ReservationEngine) ListReservations(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error) {
	if _, err := e.students.FindByID(ctx, nil, studentID); err != nil {
		return nil, appErrors.NotFoundOr(err, "student not found", "failed to load student")
	}
	reservations, err := e.reservations.ListByStudent(ctx, studentID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	if reservations == nil {
		reservations = []models.ReservationDetail{}
	}
	return reservations, nil
}

func (e *ReservationEngine) begin(ctx context.Context) (*sqlx.Tx, error) {
	if e.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := e.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	return tx, nil
}

func (e *ReservationEngine) reject(op string, studentID, itemID int64, message string) *models.Result {
	e.metrics.RecordEngineOperation(op, OutcomeRejected)
	e.logger.Info("reservation rejected",
		zap.String("operation", op),
		zap.Int64("student_id", studentID),
		zap.Int64("item_id", itemID),
		zap.String("reason", message),
	)
	return models.Rejected(message)
}

func (e *ReservationEngine) fail(op string, err error) (*models.Result, error) {
	e.metrics.RecordEngineOperation(op, OutcomeFailed)
	return nil, err
}
