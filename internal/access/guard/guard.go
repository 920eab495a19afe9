// Package guard gates the admin area: it resolves the caller from a bearer
// token, derives their capabilities and enforces them per route.
package guard

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
)

type Sessions interface {
	Session(ctx context.Context, token string) (*domain.User, error)
	SignOut(ctx context.Context, token string) error
}

type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (domain.Role, error)
}

type Principal struct {
	UserID       string
	Email        string
	Role         domain.Role
	Capabilities Capabilities
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	const prefix = "bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type Guard struct {
	sessions Sessions
	roles    RoleResolver
	logger   *zap.Logger
}

func New(sessions Sessions, roles RoleResolver, logger *zap.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		roles:    roles,
		logger:   logger,
	}
}

// Middleware admits owners and admins. A signed-in user without either role
// is signed out before being refused.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID, logger := httpjson.Trace(g.logger, r)

		token := BearerToken(r)
		if token == "" {
			httpjson.WriteError(w, traceID, apperrors.NewUnauthorizedError("sign in to continue"), logger)
			return
		}

		user, err := g.sessions.Session(r.Context(), token)
		if err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		role, err := g.roles.RoleOf(r.Context(), user.ID)
		if err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		if !role.CanAdminister() {
			logger.Warn("non-admin user reached admin area, signing out", zap.String("userId", user.ID))
			if err := g.sessions.SignOut(r.Context(), token); err != nil {
				logger.Error("forced sign-out failed", zap.String("userId", user.ID), zap.Error(err))
			}
			httpjson.WriteError(w, traceID, apperrors.NewForbiddenError("you do not have access to the admin area"), logger)
			return
		}

		principal := Principal{
			UserID:       user.ID,
			Email:        user.Email,
			Role:         role,
			Capabilities: For(role),
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Require refuses requests whose principal lacks capability.
func (g *Guard) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if ok && p.Capabilities.Has(capability) {
				next.ServeHTTP(w, r)
				return
			}

			traceID, logger := httpjson.Trace(g.logger, r)
			if !ok {
				httpjson.WriteError(w, traceID, apperrors.NewUnauthorizedError("sign in to continue"), logger)
				return
			}
			logger.Info("capability refused", zap.String("userId", p.UserID), zap.String("capability", string(capability)))
			httpjson.WriteError(w, traceID, apperrors.NewForbiddenError("your role does not allow this action"), logger)
		})
	}
}
