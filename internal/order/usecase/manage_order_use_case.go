package usecase

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
	"github.com/moaz267/furniture/internal/order/repository"
	"github.com/moaz267/furniture/internal/order/service"
)

const defaultPageSize = 50

type LifecycleService interface {
	ApplyTransition(ctx context.Context, cmd service.TransitionCommand) (*service.TransitionResult, error)
	DeleteOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type OrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Order, error)
	Count(ctx context.Context, status *domain.OrderStatus) (int, error)
}

type TimelineReader interface {
	ListByOrder(ctx context.Context, orderID string) ([]domain.TimelineEntry, error)
}

type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (domain.Role, error)
}

type ScreenshotLinker interface {
	SignedURL(bucket, key string, ttl time.Duration) (string, error)
}

type OrphanRecorder interface {
	Record(ctx context.Context, bucket, key string) error
}

type ListQuery struct {
	Status *domain.OrderStatus
	Limit  int
	Offset int
}

type OrderPage struct {
	Orders []domain.Order
	Total  int
	Limit  int
	Offset int
}

type OrderDetail struct {
	Order         domain.Order
	Timeline      []domain.TimelineEntry
	ScreenshotURL string
}

// ManageOrderUseCase is the admin's view of orders: reading them, moving
// them through their lifecycle and, for owners, deleting them.
type ManageOrderUseCase struct {
	lifecycle        LifecycleService
	orders           OrderReader
	timeline         TimelineReader
	roles            RoleResolver
	screenshots      ScreenshotLinker
	orphans          OrphanRecorder
	logger           *zap.Logger
	maxRetryAttempts int
	signedURLTTL     time.Duration
	sleep            func(time.Duration)
}

func NewManageOrderUseCase(
	lifecycle LifecycleService,
	orders OrderReader,
	timeline TimelineReader,
	roles RoleResolver,
	screenshots ScreenshotLinker,
	orphans OrphanRecorder,
	logger *zap.Logger,
	maxRetryAttempts int,
	signedURLTTL time.Duration,
) *ManageOrderUseCase {
	return &ManageOrderUseCase{
		lifecycle:        lifecycle,
		orders:           orders,
		timeline:         timeline,
		roles:            roles,
		screenshots:      screenshots,
		orphans:          orphans,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		signedURLTTL:     signedURLTTL,
		sleep:            time.Sleep,
	}
}

func (uc *ManageOrderUseCase) Transition(
	ctx context.Context,
	actorID string,
	orderID string,
	status domain.OrderStatus,
	note string,
) (*service.TransitionResult, error) {
	uc.logger.Info("order transition requested",
		zap.String("orderId", orderID),
		zap.String("status", string(status)),
		zap.String("actor", actorID),
	)

	if _, ok := domain.ParseOrderStatus(string(status)); !ok {
		return nil, apperrors.NewValidationError("unknown order status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "must be a known order status",
		})
	}
	if status == domain.OrderStatusPaymentFailed && strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("a reason is required to reject a payment", apperrors.ValidationDetail{
			Field:   "note",
			Message: "explain why the payment was rejected",
		})
	}

	cmd := service.TransitionCommand{
		OrderID: orderID,
		ActorID: actorID,
		Status:  status,
		Note:    note,
	}
	return withDeadlockRetry(ctx, uc, orderID, func() (*service.TransitionResult, error) {
		return uc.lifecycle.ApplyTransition(ctx, cmd)
	})
}

// Delete is reserved for owners. The role is looked up again here even though
// the HTTP guard already checked capabilities.
func (uc *ManageOrderUseCase) Delete(ctx context.Context, actorID, orderID string) error {
	role, err := uc.roles.RoleOf(ctx, actorID)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner {
		uc.logger.Warn("order delete refused", zap.String("orderId", orderID), zap.String("actor", actorID), zap.String("role", string(role)))
		return apperrors.NewForbiddenError("only the owner can delete orders")
	}

	deleted, err := withDeadlockRetry(ctx, uc, orderID, func() (*domain.Order, error) {
		return uc.lifecycle.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	// The screenshot is no longer referenced; the orphan sweep removes it.
	if deleted.ScreenshotKey != "" {
		if err := uc.orphans.Record(context.WithoutCancel(ctx), blob.BucketPaymentScreenshots, deleted.ScreenshotKey); err != nil {
			uc.logger.Warn("failed to record screenshot of deleted order",
				zap.String("orderId", orderID),
				zap.String("key", deleted.ScreenshotKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (uc *ManageOrderUseCase) List(ctx context.Context, q ListQuery) (*OrderPage, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = defaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	orders, err := uc.orders.List(ctx, repository.ListFilter{Status: q.Status, Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, err
	}
	total, err := uc.orders.Count(ctx, q.Status)
	if err != nil {
		return nil, err
	}

	return &OrderPage{Orders: orders, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (uc *ManageOrderUseCase) Detail(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	timeline, err := uc.timeline.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{Order: *order, Timeline: timeline}
	if order.ScreenshotKey != "" {
		url, err := uc.screenshots.SignedURL(blob.BucketPaymentScreenshots, order.ScreenshotKey, uc.signedURLTTL)
		if err != nil {
			uc.logger.Warn("failed to sign screenshot url", zap.String("orderId", orderID), zap.Error(err))
		} else {
			detail.ScreenshotURL = url
		}
	}
	return detail, nil
}

// Backoff before attempt n+1: 0ms, 100ms, 200ms, ... with ±20% jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(attempt-1) * 100 * time.Millisecond
	if base == 0 {
		return 0
	}
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}

func withDeadlockRetry[T any](ctx context.Context, uc *ManageOrderUseCase, orderID string, fn func() (T, error)) (T, error) {
	var zero T
	maxAttempts := uc.maxRetryAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !mysql.IsDeadlock(err) {
			return zero, err
		}
		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		uc.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.String("orderId", orderID),
		)
		uc.sleep(backoff(attempt + 1))
	}

	return zero, apperrors.NewDeadlockError("max retries exceeded")
}
