package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

type MySQLMessageRepository struct {
	db *sql.DB
}

func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{db: db}
}

func (r *MySQLMessageRepository) Create(ctx context.Context, m *domain.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Email, m.Phone, m.Subject, m.Message, m.IsRead, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting contact message: %w", err)
	}
	return nil
}

// List returns messages newest first.
func (r *MySQLMessageRepository) List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	query := `
		SELECT id, name, email, phone, subject, message, is_read, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying contact messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ContactMessage
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contact messages: %w", err)
	}
	return messages, nil
}

// Counts returns the total and unread message counts.
func (r *MySQLMessageRepository) Counts(ctx context.Context) (total int, unread int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_read = 0), 0) FROM contact_messages`,
	).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("counting contact messages: %w", err)
	}
	return total, unread, nil
}

func (r *MySQLMessageRepository) MarkRead(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE contact_messages SET is_read = 1 WHERE id = ?`, id, "marking message read")
}

func (r *MySQLMessageRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM contact_messages WHERE id = ?`, id, "deleting message")
}

func (r *MySQLMessageRepository) exec(ctx context.Context, query, id, op string) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM contact_messages WHERE id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking message: %w", err)
		}
		if !exists {
			return apperrors.NewNotFoundError(fmt.Sprintf("message %s not found", id))
		}
	}
	return nil
}
