package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/checkout/workflow"
	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
)

const maxOrderNumberRetries = 2

type CartProvider interface {
	Get(session string) (*store.Store, error)
}

type WorkflowProvider interface {
	Peek(session string) (*workflow.Workflow, bool)
	Release(session string)
}

type ScreenshotUploader interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader) error
}

type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order) error
}

type OrphanRecorder interface {
	Record(ctx context.Context, bucket, key string) error
}

type Confirmation struct {
	OrderID     string
	OrderNumber string
	Total       decimal.Decimal
}

// SubmitOrderUseCase turns a completed checkout into an order: the payment
// screenshot is stored first and the order row is written only after that
// succeeded.
type SubmitOrderUseCase struct {
	carts       CartProvider
	workflows   WorkflowProvider
	screenshots ScreenshotUploader
	orders      OrderCreator
	orphans     OrphanRecorder
	logger      *zap.Logger
	now         func() time.Time
}

func NewSubmitOrderUseCase(
	carts CartProvider,
	workflows WorkflowProvider,
	screenshots ScreenshotUploader,
	orders OrderCreator,
	orphans OrphanRecorder,
	logger *zap.Logger,
) *SubmitOrderUseCase {
	return &SubmitOrderUseCase{
		carts:       carts,
		workflows:   workflows,
		screenshots: screenshots,
		orders:      orders,
		orphans:     orphans,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *SubmitOrderUseCase) Confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	logger := uc.logger.With(zap.String("session", sessionID))

	flow, ok := uc.workflows.Peek(sessionID)
	if !ok {
		return nil, apperrors.NewConflictError("checkout has not been started")
	}
	cart, err := uc.carts.Get(sessionID)
	if err != nil {
		return nil, apperrors.NewUnavailableError("cart is unavailable", err)
	}
	if cart.IsEmpty() {
		return nil, workflow.ErrEmptyCart
	}

	sub, release, err := flow.TrySubmit()
	if err != nil {
		return nil, err
	}
	defer release()

	items := domain.NewOrderItems(cart.Items())
	subtotal := items.Subtotal()
	total := subtotal.Add(domain.ShippingCost)
	if total.GreaterThan(domain.MaxOrderAmount) {
		return nil, apperrors.NewValidationError("order total is too large", apperrors.ValidationDetail{
			Field:   "cart",
			Message: "reduce the quantities in your cart",
		})
	}

	now := uc.now()
	key := ScreenshotKey(now, sub.Screenshot.Extension())

	if err := uc.screenshots.Upload(ctx, blob.BucketPaymentScreenshots, key, bytes.NewReader(sub.Screenshot.Data)); err != nil {
		logger.Warn("payment screenshot upload failed", zap.String("key", key), zap.Error(err))
		return nil, apperrors.NewUnavailableError("could not upload the payment screenshot, please try again", err)
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     domain.NewOrderNumber(now),
		CustomerName:    sub.Form.FullName(),
		CustomerEmail:   sub.Form.Email,
		CustomerPhone:   sub.Form.Phone,
		ShippingAddress: sub.Form.Address,
		City:            sub.Form.City,
		Items:           items,
		Subtotal:        subtotal,
		Shipping:        domain.ShippingCost,
		Total:           total,
		PaymentMethod:   sub.Method,
		PaymentStatus:   domain.PaymentStatusPending,
		OrderStatus:     domain.OrderStatusAwaitingPayment,
		ScreenshotKey:   key,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.create(ctx, order); err != nil {
		logger.Warn("order insert failed after upload", zap.String("key", key), zap.Error(err))
		if recErr := uc.orphans.Record(context.WithoutCancel(ctx), blob.BucketPaymentScreenshots, key); recErr != nil {
			logger.Error("failed to record orphaned screenshot", zap.String("key", key), zap.Error(recErr))
		}
		return nil, apperrors.NewUnavailableError("could not place the order, please try again", err)
	}

	cart.Clear()
	uc.workflows.Release(sessionID)

	logger.Info("order placed",
		zap.String("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("paymentMethod", string(order.PaymentMethod)),
	)

	return &Confirmation{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	}, nil
}

// create inserts order, suffixing its number when another order placed in
// the same millisecond already holds it.
func (uc *SubmitOrderUseCase) create(ctx context.Context, order *domain.Order) error {
	base := order.OrderNumber
	var err error
	for attempt := 0; attempt <= maxOrderNumberRetries; attempt++ {
		if attempt > 0 {
			order.OrderNumber = domain.WithSuffix(base, randomHex(4))
			uc.logger.Info("order number taken, retrying", zap.String("orderNumber", order.OrderNumber))
		}
		err = uc.orders.Create(ctx, order)
		if _, conflict := apperrors.IsConflictError(err); !conflict {
			return err
		}
	}
	return err
}

// ScreenshotKey names an uploaded screenshot: upload time in unix
// milliseconds, twelve random hex characters and the file extension.
func ScreenshotKey(at time.Time, ext string) string {
	return fmt.Sprintf("%d-%s%s", at.UnixMilli(), randomHex(12), ext)
}

func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
