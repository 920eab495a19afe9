package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/moaz267/furniture/internal/domain"
)

type MySQLOutboxRepository struct {
	db *sql.DB
}

func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}

// Enqueue records evt in the same transaction as the status change that
// produced it.
func (r *MySQLOutboxRepository) Enqueue(ctx context.Context, tx *sql.Tx, evt domain.OutboxEvent) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("encoding outbox payload: %w", err)
	}

	query := `
		INSERT INTO notification_outbox (id, order_id, kind, payload, attempts, next_attempt_at, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		evt.ID, evt.OrderID, string(evt.Kind), payload, evt.NextAttemptAt, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting outbox event: %w", err)
	}
	return nil
}

// ClaimDue returns up to limit unsent events whose next attempt is due and
// pushes their next attempt to now+lease so a concurrent relay skips them.
func (r *MySQLOutboxRepository) ClaimDue(
	ctx context.Context,
	now time.Time,
	lease time.Duration,
	maxAttempts int,
	limit int,
) ([]domain.OutboxEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, order_id, kind, payload, attempts, next_attempt_at, last_error, sent_at, created_at
		FROM notification_outbox
		WHERE sent_at IS NULL AND attempts < ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, maxAttempts, now, limit)
	if err != nil {
		return nil, fmt.Errorf("querying due outbox events: %w", err)
	}

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			evt     domain.OutboxEvent
			kind    string
			payload []byte
		)
		if err := rows.Scan(
			&evt.ID, &evt.OrderID, &kind, &payload, &evt.Attempts,
			&evt.NextAttemptAt, &evt.LastError, &evt.SentAt, &evt.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning outbox event: %w", err)
		}
		evt.Kind = domain.NotificationKind(kind)
		if err := json.Unmarshal(payload, &evt.Payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding outbox payload %s: %w", evt.ID, err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating outbox events: %w", err)
	}
	rows.Close()

	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(events)+1)
	ids = append(ids, now.Add(lease))
	for _, evt := range events {
		ids = append(ids, evt.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(events)), ",")
	if _, err := tx.ExecContext(ctx,
		`UPDATE notification_outbox SET next_attempt_at = ? WHERE id IN (`+placeholders+`)`, ids...,
	); err != nil {
		return nil, fmt.Errorf("leasing outbox events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return events, nil
}

func (r *MySQLOutboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_outbox SET sent_at = ?, attempts = attempts + 1, last_error = NULL WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("marking outbox event sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery and schedules the next attempt.
func (r *MySQLOutboxRepository) MarkFailed(ctx context.Context, id string, nextAttemptAt time.Time, cause string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_outbox SET attempts = attempts + 1, next_attempt_at = ?, last_error = ? WHERE id = ?`,
		nextAttemptAt, cause, id,
	)
	if err != nil {
		return fmt.Errorf("marking outbox event failed: %w", err)
	}
	return nil
}

func (r *MySQLOutboxRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM notification_outbox WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("deleting outbox events: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}
