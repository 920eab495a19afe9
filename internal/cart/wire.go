package cart

import (
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/controller"
	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/infrastructure/localstore"
	"github.com/moaz267/furniture/internal/session"
)

// NewRegistry keeps one cart per shopper session, each persisted under dir.
func NewRegistry(dir *localstore.Dir, logger *zap.Logger) *session.Registry[*store.Store] {
	return session.NewRegistry(func(sessionID string) (*store.Store, error) {
		fs, err := dir.Open(sessionID)
		if err != nil {
			return nil, err
		}
		return store.New(fs, logger.With(zap.String("session", sessionID))), nil
	})
}

func NewModule(carts *session.Registry[*store.Store], products controller.ProductLookup, validate controller.Validator, logger *zap.Logger) *controller.CartController {
	return controller.NewCartController(carts, products, validate, logger)
}
