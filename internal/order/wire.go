package order

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/config"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
	"github.com/moaz267/furniture/internal/order/controller"
	"github.com/moaz267/furniture/internal/order/repository"
	"github.com/moaz267/furniture/internal/order/service"
	"github.com/moaz267/furniture/internal/order/usecase"
)

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	roles usecase.RoleResolver,
	screenshots usecase.ScreenshotLinker,
	orphans usecase.OrphanRecorder,
	logger *zap.Logger,
) *controller.AdminOrderController {
	orderRepo := repository.NewMySQLOrderRepository(db)
	timelineRepo := repository.NewMySQLTimelineRepository(db)
	outboxRepo := repository.NewMySQLOutboxRepository(db)

	lifecycle := service.NewLifecycleService(
		mysql.NewTxRunner(db, cfg.Order.TxTimeout),
		orderRepo,
		timelineRepo,
		outboxRepo,
		logger,
	)

	manage := usecase.NewManageOrderUseCase(
		lifecycle,
		orderRepo,
		timelineRepo,
		roles,
		screenshots,
		orphans,
		logger,
		cfg.Order.MaxRetryAttempts,
		cfg.Blob.SignedURLTTL,
	)

	return controller.NewAdminOrderController(manage, logger)
}
