package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moaz267/furniture/internal/domain"
)

type MySQLOrphanRepository struct {
	db *sql.DB
}

func NewMySQLOrphanRepository(db *sql.DB) *MySQLOrphanRepository {
	return &MySQLOrphanRepository{db: db}
}

// Record marks bucket/key as a deletion candidate. Recording the same object
// twice keeps the first timestamp.
func (r *MySQLOrphanRepository) Record(ctx context.Context, bucket, key string) error {
	query := `
		INSERT INTO orphan_blobs (id, bucket, blob_key, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), bucket, key, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording orphan blob: %w", err)
	}
	return nil
}

func (r *MySQLOrphanRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.OrphanBlob, error) {
	query := `
		SELECT id, bucket, blob_key, created_at
		FROM orphan_blobs
		WHERE created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying orphan blobs: %w", err)
	}
	defer rows.Close()

	var orphans []domain.OrphanBlob
	for rows.Next() {
		var o domain.OrphanBlob
		if err := rows.Scan(&o.ID, &o.Bucket, &o.Key, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning orphan blob: %w", err)
		}
		orphans = append(orphans, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orphan blobs: %w", err)
	}
	return orphans, nil
}

func (r *MySQLOrphanRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orphan_blobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("removing orphan blob record: %w", err)
	}
	return nil
}
