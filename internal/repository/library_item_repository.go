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

// LibraryItemRepository persists cached library catalog entries.
type LibraryItemRepository struct {
	db *sqlx.DB
}

// NewLibraryItemRepository constructs the repository.
func NewLibraryItemRepository(db *sqlx.DB) *LibraryItemRepository {
	return &LibraryItemRepository{db: db}
}

const libraryItemColumns = `id, title, author, year, status, synced_at`

// List returns library items matching title/author search and status.
func (r *LibraryItemRepository) List(ctx context.Context, filter models.LibraryItemFilter) ([]models.LibraryItem, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions, args = containsArg(conditions, args, filter.Search, "title", "author")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("LOWER(status) = LOWER($%d)", len(args)))
	}
	clause := whereClause(conditions)
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM library_items%s ORDER BY title ASC, id ASC LIMIT %d OFFSET %d", libraryItemColumns, clause, limit, offset)
	var items []models.LibraryItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list library items: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM library_items"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count library items: %w", err)
	}
	return items, total, nil
}

// FindByID returns an item by external id. sql.ErrNoRows is returned unwrapped.
func (r *LibraryItemRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LibraryItem, error) {
	var item models.LibraryItem
	query := "SELECT " + libraryItemColumns + " FROM library_items WHERE id = $1"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate loads an item and locks its row for the rest of the transaction.
func (r *LibraryItemRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LibraryItem, error) {
	var item models.LibraryItem
	query := "SELECT " + libraryItemColumns + " FROM library_items WHERE id = $1 FOR UPDATE"
	if err := sqlx.GetContext(ctx, target(r.db, exec), &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStatus sets the item's availability status.
func (r *LibraryItemRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status string) error {
	const query = `UPDATE library_items SET status = $2 WHERE id = $1`
	if _, err := target(r.db, exec).ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update library item %d status: %w", id, err)
	}
	return nil
}

// Count returns the number of cached library items.
func (r *LibraryItemRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM library_items"); err != nil {
		return 0, fmt.Errorf("count library items: %w", err)
	}
	return total, nil
}

// Upsert overwrites the item identified by external id, inserting it when absent.
func (r *LibraryItemRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, item *models.LibraryItem) (bool, error) {
	t := target(r.db, exec)
	if item.SyncedAt.IsZero() {
		item.SyncedAt = time.Now().UTC()
	}

	var exists int
	err := sqlx.GetContext(ctx, t, &exists, "SELECT 1 FROM library_items WHERE id = $1", item.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup library item %d: %w", item.ID, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		const insertQuery = `INSERT INTO library_items (id, title, author, year, status, synced_at)
VALUES (:id, :title, :author, :year, :status, :synced_at)`
		if _, err := sqlx.NamedExecContext(ctx, t, insertQuery, item); err != nil {
			return false, fmt.Errorf("insert library item %d: %w", item.ID, err)
		}
		return true, nil
	}

	const updateQuery = `UPDATE library_items SET title = :title, author = :author, year = :year,
status = :status, synced_at = :synced_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, t, updateQuery, item); err != nil {
		return false, fmt.Errorf("update library item %d: %w", item.ID, err)
	}
	return false, nil
}
