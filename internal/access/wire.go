package access

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/controller"
	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/access/repository"
	"github.com/moaz267/furniture/internal/access/service"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
)

type Module struct {
	Controller *controller.AccessController
	Guard      *guard.Guard
	Roles      *repository.MySQLRoleRepository
}

func NewModule(db *sql.DB, txTimeout time.Duration, sessions guard.Sessions, users service.UserLookup, logger *zap.Logger) *Module {
	roles := repository.NewMySQLRoleRepository(db)
	svc := service.NewRoleService(mysql.NewTxRunner(db, txTimeout), roles, users, logger)

	return &Module{
		Controller: controller.NewAccessController(svc, logger),
		Guard:      guard.New(sessions, roles, logger),
		Roles:      roles,
	}
}
