package product

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/infrastructure/blob"
	"github.com/moaz267/furniture/internal/product/controller"
	"github.com/moaz267/furniture/internal/product/repository"
	"github.com/moaz267/furniture/internal/product/service"
	"github.com/moaz267/furniture/internal/product/usecase"
)

type Module struct {
	Catalog *controller.CatalogController
	Admin   *controller.AdminProductController
	Service *service.ProductService
}

func NewModule(db *sql.DB, images *blob.FSStore, validator service.Validator, logger *zap.Logger) *Module {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(repo, images, validator, logger)

	return &Module{
		Catalog: controller.NewCatalogController(usecase.NewSearchUseCase(svc), logger),
		Admin:   controller.NewAdminProductController(usecase.NewManageUseCase(svc), logger),
		Service: svc,
	}
}
