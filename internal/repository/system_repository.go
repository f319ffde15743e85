package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// StateInitializedAt is the system_state key written after a successful import.
const StateInitializedAt = "initialized_at"

// SystemRepository stores bootstrap markers and performs full resets.
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository constructs the repository.
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// GetState returns the value stored under key, or "" when unset.
func (r *SystemRepository) GetState(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM system_state WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get system state %s: %w", key, err)
	}
	return value, nil
}

// SetState writes value under key.
func (r *SystemRepository) SetState(ctx context.Context, exec sqlx.ExtContext, key, value string) error {
	const query = `INSERT INTO system_state (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := target(r.db, exec).ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set system state %s: %w", key, err)
	}
	return nil
}

// Reset removes every cached and locally owned record.
func (r *SystemRepository) Reset(ctx context.Context, exec sqlx.ExtContext) error {
	const query = `TRUNCATE enrollment_lines, enrollments, reservations, students, course_offerings, library_items, system_state RESTART IDENTITY`
	if _, err := target(r.db, exec).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("reset record store: %w", err)
	}
	return nil
}
