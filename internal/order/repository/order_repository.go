package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
)

const orderColumns = `
	id, order_number, customer_name, customer_email, customer_phone,
	shipping_address, city, items, subtotal, shipping, total,
	payment_method, payment_status, order_status, screenshot_url,
	admin_notes, created_at, updated_at`

type ListFilter struct {
	Status *domain.OrderStatus
	Limit  int
	Offset int
}

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order         domain.Order
		method        string
		paymentStatus string
		orderStatus   string
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.ShippingAddress, &order.City, &order.Items, &order.Subtotal, &order.Shipping, &order.Total,
		&method, &paymentStatus, &orderStatus, &order.ScreenshotKey,
		&order.AdminNotes, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = domain.PaymentMethod(method)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	order.OrderStatus = domain.OrderStatus(orderStatus)
	return &order, nil
}

func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, customer_name, customer_email, customer_phone,
			shipping_address, city, items, subtotal, shipping, total,
			payment_method, payment_status, order_status, screenshot_url,
			admin_notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.ShippingAddress, order.City, order.Items, order.Subtotal, order.Shipping, order.Total,
		string(order.PaymentMethod), string(order.PaymentStatus), string(order.OrderStatus), order.ScreenshotKey,
		order.AdminNotes, order.CreatedAt, order.UpdatedAt,
	)
	if mysql.IsDuplicateEntry(err) {
		return apperrors.NewConflictError(fmt.Sprintf("order number %s is already taken", order.OrderNumber))
	}
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

// FindByIDForUpdate locks the order row until tx ends.
func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order: %w", err)
	}
	return order, nil
}

// List returns orders newest first.
func (r *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE order_status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

func (r *MySQLOrderRepository) Count(ctx context.Context, status *domain.OrderStatus) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	args := []any{}
	if status != nil {
		query += ` WHERE order_status = ?`
		args = append(args, string(*status))
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func (r *MySQLOrderRepository) UpdateStatus(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	status domain.OrderStatus,
	payment domain.PaymentStatus,
	notes *string,
) error {
	query := `
		UPDATE orders
		SET order_status = ?, payment_status = ?, admin_notes = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query, string(status), string(payment), notes, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return nil
}

func (r *MySQLOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return nil
}

// ExistsByScreenshotKey reports whether any order still points at key.
func (r *MySQLOrderRepository) ExistsByScreenshotKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE screenshot_url = ?)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking screenshot reference: %w", err)
	}
	return exists, nil
}
