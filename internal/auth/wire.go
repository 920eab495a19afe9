package auth

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/auth/controller"
	"github.com/moaz267/furniture/internal/auth/repository"
	"github.com/moaz267/furniture/internal/auth/service"
	"github.com/moaz267/furniture/internal/config"
)

// SessionState is per-shopper state dropped when its owner signs out.
type SessionState interface {
	Release(session string)
}

type Module struct {
	Controller *controller.AuthController
	Service    *service.AuthService
	Users      *repository.MySQLUserRepository
}

func NewModule(db *sql.DB, cfg *config.Config, validator service.Validator, states []SessionState, logger *zap.Logger) *Module {
	users := repository.NewMySQLUserRepository(db)
	svc := service.NewAuthService(
		users,
		validator,
		cfg.Auth.JWTSecret,
		cfg.Auth.SessionTTL,
		logger,
	)

	svc.Subscribe(func(ctx context.Context, evt service.Event) {
		if evt.Kind != service.SignedOut || evt.ShopperSession == "" {
			return
		}
		for _, s := range states {
			s.Release(evt.ShopperSession)
		}
	})

	return &Module{
		Controller: controller.NewAuthController(svc, logger),
		Service:    svc,
		Users:      users,
	}
}
