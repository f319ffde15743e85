package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// ReservationRepository persists library reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, student_id, item_id, active, created_at, updated_at`

// Find returns the reservation for (student, item) regardless of its active flag.
// sql.ErrNoRows is returned unwrapped when the pair was never reserved.
func (r *ReservationRepository) Find(ctx context.Context, exec sqlx.ExtContext, studentID, itemID int64) (*models.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE student_id = $1 AND item_id = $2"
	var reservation models.Reservation
	if err := sqlx.GetContext(ctx, target(r.db, exec), &reservation, query, studentID, itemID); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Create inserts a reservation and fills in its generated id.
func (r *ReservationRepository) Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error {
	now := time.Now().UTC()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	reservation.UpdatedAt = now
	const query = `INSERT INTO reservations (student_id, item_id, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, target(r.db, exec), &reservation.ID, query,
		reservation.StudentID, reservation.ItemID, reservation.Active, reservation.CreatedAt, reservation.UpdatedAt); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// SetActive flips the active flag of a reservation.
func (r *ReservationRepository) SetActive(ctx context.Context, exec sqlx.ExtContext, id int64, active bool) error {
	const query = `UPDATE reservations SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := target(r.db, exec).ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set reservation %d active=%t: %w", id, active, err)
	}
	return nil
}

// ListByStudent returns the student's reservations joined with their item, newest first.
func (r *ReservationRepository) ListByStudent(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error) {
	query := `SELECT r.id, r.student_id, r.item_id, r.active, r.created_at, r.updated_at,
        i.title AS item_title, i.author AS item_author, i.status AS item_status
        FROM reservations r
        JOIN library_items i ON i.id = r.item_id
        WHERE r.student_id = $1`
	if activeOnly {
		query += " AND r.active"
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"
	var reservations []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &reservations, query, studentID); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}
