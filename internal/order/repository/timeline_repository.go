package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moaz267/furniture/internal/domain"
)

type MySQLTimelineRepository struct {
	db *sql.DB
}

func NewMySQLTimelineRepository(db *sql.DB) *MySQLTimelineRepository {
	return &MySQLTimelineRepository{db: db}
}

func (r *MySQLTimelineRepository) Insert(ctx context.Context, tx *sql.Tx, entry domain.TimelineEntry) error {
	query := `
		INSERT INTO order_timeline (id, order_id, status, note, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		entry.ID, entry.OrderID, string(entry.Status), entry.Note, entry.CreatedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting timeline entry: %w", err)
	}
	return nil
}

// ListByOrder returns the order's history, newest first.
func (r *MySQLTimelineRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.TimelineEntry, error) {
	query := `
		SELECT id, order_id, status, note, created_by, created_at
		FROM order_timeline
		WHERE order_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimelineEntry
	for rows.Next() {
		var (
			entry  domain.TimelineEntry
			status string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &entry.Note, &entry.CreatedBy, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning timeline entry: %w", err)
		}
		entry.Status = domain.OrderStatus(status)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating timeline: %w", err)
	}
	return entries, nil
}

func (r *MySQLTimelineRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM order_timeline WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("deleting timeline: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}
