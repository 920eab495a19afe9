package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/repository"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type RoleRepository interface {
	List(ctx context.Context) ([]repository.Assignment, error)
	Grant(ctx context.Context, grant *domain.UserRole) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*domain.UserRole, error)
	Revoke(ctx context.Context, tx *sql.Tx, id string) error
	CountByRoleForUpdate(ctx context.Context, tx *sql.Tx, role domain.Role) (int, error)
}

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type RoleService struct {
	tx     TxRunner
	roles  RoleRepository
	users  UserLookup
	logger *zap.Logger
	now    func() time.Time
}

func NewRoleService(tx TxRunner, roles RoleRepository, users UserLookup, logger *zap.Logger) *RoleService {
	return &RoleService{tx: tx, roles: roles, users: users, logger: logger, now: time.Now}
}

func (s *RoleService) List(ctx context.Context) ([]repository.Assignment, error) {
	return s.roles.List(ctx)
}

// Grant gives a user a role. The user may be named by id or by email.
func (s *RoleService) Grant(ctx context.Context, actorID string, req dto.GrantRoleRequest) (*repository.Assignment, error) {
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", apperrors.ValidationDetail{
			Field:   "role",
			Message: "role must be one of: owner, admin, user",
		})
	}

	userID := strings.TrimSpace(req.UserID)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if userID == "" {
		if email == "" {
			return nil, apperrors.NewValidationError("grantee is required", apperrors.ValidationDetail{
				Field:   "email",
				Message: "email or userId is required",
			})
		}
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		userID = user.ID
	}

	grant := &domain.UserRole{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.roles.Grant(ctx, grant); err != nil {
		return nil, err
	}

	s.logger.Info("role granted",
		zap.String("actorId", actorID),
		zap.String("userId", userID),
		zap.String("role", string(role)),
	)
	return &repository.Assignment{UserRole: *grant, Email: email}, nil
}

// Revoke removes a grant. The last owner grant cannot be removed.
func (s *RoleService) Revoke(ctx context.Context, actorID, grantID string) error {
	var grant *domain.UserRole

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		grant, err = s.roles.FindByID(ctx, tx, grantID)
		if err != nil {
			return err
		}

		if grant.Role == domain.RoleOwner {
			owners, err := s.roles.CountByRoleForUpdate(ctx, tx, domain.RoleOwner)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return apperrors.NewConflictError("cannot revoke the last owner")
			}
		}

		return s.roles.Revoke(ctx, tx, grantID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("role revoked",
		zap.String("actorId", actorID),
		zap.String("userId", grant.UserID),
		zap.String("role", string(grant.Role)),
	)
	return nil
}
