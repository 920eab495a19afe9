package checkout

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/checkout/controller"
	"github.com/moaz267/furniture/internal/checkout/repository"
	"github.com/moaz267/furniture/internal/checkout/service"
	"github.com/moaz267/furniture/internal/checkout/usecase"
	"github.com/moaz267/furniture/internal/checkout/workflow"
	"github.com/moaz267/furniture/internal/config"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
	orderrepo "github.com/moaz267/furniture/internal/order/repository"
	"github.com/moaz267/furniture/internal/session"
)

type Module struct {
	Controller *controller.CheckoutController
	Workflows  *session.Registry[*workflow.Workflow]
	Orphans    *repository.MySQLOrphanRepository
	Sweeper    *service.OrphanSweeper
}

// NewWorkflowRegistry starts a checkout for a session the first time it is
// asked for, as long as the session's cart has something in it.
func NewWorkflowRegistry(carts *session.Registry[*store.Store], opts workflow.Options) *session.Registry[*workflow.Workflow] {
	return session.NewRegistry(func(sessionID string) (*workflow.Workflow, error) {
		cart, err := carts.Get(sessionID)
		if err != nil {
			return nil, err
		}
		return workflow.Begin(cart, opts)
	})
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	carts *session.Registry[*store.Store],
	blobs *blob.FSStore,
	validator workflow.FormValidator,
	logger *zap.Logger,
) *Module {
	methods := []domain.PaymentMethod{domain.PaymentMethodVodafone, domain.PaymentMethodInstapay}
	workflows := NewWorkflowRegistry(carts, workflow.Options{
		Methods:            methods,
		MaxScreenshotBytes: cfg.Checkout.MaxScreenshotBytes,
		Validator:          validator,
	})

	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orphanRepo := repository.NewMySQLOrphanRepository(db)

	submit := usecase.NewSubmitOrderUseCase(carts, workflows, blobs, orderRepo, orphanRepo, logger)
	ctrl := controller.NewCheckoutController(carts, workflows, submit, []controller.PaymentOption{
		{Method: domain.PaymentMethodVodafone, Account: cfg.Checkout.VodafoneNumber},
		{Method: domain.PaymentMethodInstapay, Account: cfg.Checkout.InstapayHandle},
	}, cfg.Checkout.MaxScreenshotBytes, logger)

	return &Module{
		Controller: ctrl,
		Workflows:  workflows,
		Orphans:    orphanRepo,
		Sweeper:    service.NewOrphanSweeper(orphanRepo, orderRepo, blobs, cfg.Orphan.MinAge, logger),
	}
}
