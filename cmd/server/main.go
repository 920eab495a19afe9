package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access"
	"github.com/moaz267/furniture/internal/auth"
	"github.com/moaz267/furniture/internal/cart"
	"github.com/moaz267/furniture/internal/checkout"
	"github.com/moaz267/furniture/internal/config"
	"github.com/moaz267/furniture/internal/contact"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
	"github.com/moaz267/furniture/internal/infrastructure/localstore"
	"github.com/moaz267/furniture/internal/infrastructure/logger"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
	"github.com/moaz267/furniture/internal/infrastructure/validation"
	"github.com/moaz267/furniture/internal/notification"
	"github.com/moaz267/furniture/internal/order"
	"github.com/moaz267/furniture/internal/product"
	"github.com/moaz267/furniture/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.Migrate {
		if err := mysql.Migrate(context.Background(), db, zapLogger); err != nil {
			zapLogger.Fatal("migrating database", zap.Error(err))
		}
	}

	blobs, err := blob.NewFSStore(cfg.Blob.Root, cfg.Blob.PublicBaseURL, blob.NewSigner(cfg.Blob.SigningSecret), blob.BucketProductImages)
	if err != nil {
		zapLogger.Fatal("opening blob store", zap.Error(err))
	}

	cartDir, err := localstore.NewDir(cfg.Cart.StorageDir)
	if err != nil {
		zapLogger.Fatal("opening cart storage", zap.Error(err))
	}

	validator := validation.New()
	carts := cart.NewRegistry(cartDir, zapLogger)

	productModule := product.NewModule(db, blobs, validator, zapLogger)
	cartCtrl := cart.NewModule(carts, productModule.Service, validator, zapLogger)
	checkoutModule := checkout.NewModule(db, cfg, carts, blobs, validator, zapLogger)
	authModule := auth.NewModule(db, cfg, validator, []auth.SessionState{carts, checkoutModule.Workflows}, zapLogger)
	accessModule := access.NewModule(db, cfg.Order.TxTimeout, authModule.Service, authModule.Users, zapLogger)
	orderCtrl := order.NewModule(db, cfg, accessModule.Roles, blobs, checkoutModule.Orphans, zapLogger)
	contactCtrl := contact.NewModule(db, validator, zapLogger)

	notificationModule, err := notification.NewModule(db, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("configuring notifications", zap.Error(err))
	}
	defer notificationModule.Close()

	router := server.NewRouter(server.Handlers{
		Catalog:       productModule.Catalog,
		AdminProducts: productModule.Admin,
		Cart:          cartCtrl,
		Checkout:      checkoutModule.Controller,
		Orders:        orderCtrl,
		Contact:       contactCtrl,
		Auth:          authModule.Controller,
		Access:        accessModule.Controller,
		Blobs:         blob.NewHandler(blobs, zapLogger),
		Guard:         accessModule.Guard,
		SecureCookies: cfg.Server.SecureCookies,
	}, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	workers, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		notificationModule.Relay.Run(workers, cfg.Outbox.PollInterval)
	}()
	go func() {
		defer wg.Done()
		checkoutModule.Sweeper.Run(workers, cfg.Orphan.SweepInterval)
	}()
	go func() {
		defer wg.Done()
		evictIdleSessions(workers, cfg.Server.SessionIdleTTL, zapLogger, carts, checkoutModule.Workflows)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	stopWorkers()
	wg.Wait()

	zapLogger.Info("server stopped gracefully")
}

type idleEvicter interface {
	EvictIdle(maxIdle time.Duration) int
	Len() int
}

// evictIdleSessions drops carts and checkouts nobody has touched for maxIdle.
// Carts remain on disk and are reloaded on the shopper's next request.
func evictIdleSessions(ctx context.Context, maxIdle time.Duration, logger *zap.Logger, registries ...idleEvicter) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, r := range registries {
				if n := r.EvictIdle(maxIdle); n > 0 {
					logger.Debug("evicted idle sessions", zap.Int("evicted", n), zap.Int("remaining", r.Len()))
				}
			}
		}
	}
}
