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

// Assignment is a role grant joined with the grantee's email.
type Assignment struct {
	domain.UserRole
	Email string
}

type MySQLRoleRepository struct {
	db *sql.DB
}

func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}

// RoleOf returns the user's strongest role. Users without a grant are plain
// users.
func (r *MySQLRoleRepository) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ?`, userID)
	if err != nil {
		return "", fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return "", fmt.Errorf("scanning role: %w", err)
		}
		if role, ok := domain.ParseRole(raw); ok {
			roles = append(roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating roles: %w", err)
	}

	if role := domain.Strongest(roles); role != "" {
		return role, nil
	}
	return domain.RoleUser, nil
}

func (r *MySQLRoleRepository) List(ctx context.Context) ([]Assignment, error) {
	query := `
		SELECT ur.id, ur.user_id, ur.role, ur.created_at, u.email
		FROM user_roles ur
		JOIN users u ON u.id = ur.user_id
		ORDER BY ur.created_at DESC, ur.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var (
			a    Assignment
			role string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &role, &a.CreatedAt, &a.Email); err != nil {
			return nil, fmt.Errorf("scanning role assignment: %w", err)
		}
		a.Role = domain.Role(role)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role assignments: %w", err)
	}
	return out, nil
}

func (r *MySQLRoleRepository) Grant(ctx context.Context, grant *domain.UserRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		grant.ID, grant.UserID, string(grant.Role), grant.CreatedAt,
	)
	switch {
	case mysql.IsDuplicateEntry(err):
		return apperrors.NewConflictError(fmt.Sprintf("user already has the %s role", grant.Role))
	case mysql.IsMissingReference(err):
		return apperrors.NewNotFoundError(fmt.Sprintf("user %s not found", grant.UserID))
	case err != nil:
		return fmt.Errorf("granting role: %w", err)
	}
	return nil
}

func (r *MySQLRoleRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*domain.UserRole, error) {
	var (
		grant domain.UserRole
		role  string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, role, created_at FROM user_roles WHERE id = ?`, id,
	).Scan(&grant.ID, &grant.UserID, &role, &grant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("role grant %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying role grant: %w", err)
	}
	grant.Role = domain.Role(role)
	return &grant, nil
}

func (r *MySQLRoleRepository) Revoke(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoking role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("role grant %s not found", id))
	}
	return nil
}

// CountByRoleForUpdate counts the role's grants and locks them until tx ends.
// Rows are locked in id order so concurrent callers queue instead of
// deadlocking.
func (r *MySQLRoleRepository) CountByRoleForUpdate(ctx context.Context, tx *sql.Tx, role domain.Role) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM user_roles WHERE role = ? ORDER BY id FOR UPDATE`, string(role))
	if err != nil {
		return 0, fmt.Errorf("locking role grants: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating role grants: %w", err)
	}
	return n, nil
}
