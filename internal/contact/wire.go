package contact

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/contact/controller"
	"github.com/moaz267/furniture/internal/contact/repository"
	"github.com/moaz267/furniture/internal/contact/service"
)

func NewModule(db *sql.DB, validator service.Validator, logger *zap.Logger) *controller.ContactController {
	repo := repository.NewMySQLMessageRepository(db)
	return controller.NewContactController(service.NewContactService(repo, validator, logger), logger)
}
