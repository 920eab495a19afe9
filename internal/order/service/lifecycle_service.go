package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

const warnNoCustomerEmail = "order has no customer email; notification skipped"

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type OrderRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, payment domain.PaymentStatus, notes *string) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
}

type TimelineRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, entry domain.TimelineEntry) error
	DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx *sql.Tx, evt domain.OutboxEvent) error
	DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error)
}

type TransitionCommand struct {
	OrderID string
	ActorID string
	Status  domain.OrderStatus
	Note    string
}

type TransitionResult struct {
	Order              domain.Order
	Previous           domain.OrderStatus
	NotificationQueued bool
	Warnings           []string
}

// LifecycleService applies admin status changes. Each change, its timeline
// entry and any customer notification it owes commit together.
type LifecycleService struct {
	tx       TxRunner
	orders   OrderRepository
	timeline TimelineRepository
	outbox   OutboxRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycleService(
	tx TxRunner,
	orders OrderRepository,
	timeline TimelineRepository,
	outbox OutboxRepository,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tx:       tx,
		orders:   orders,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *LifecycleService) ApplyTransition(ctx context.Context, cmd TransitionCommand) (*TransitionResult, error) {
	var result *TransitionResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		order, err := s.orders.FindByIDForUpdate(ctx, tx, cmd.OrderID)
		if err != nil {
			return err
		}

		if !order.OrderStatus.CanTransitionTo(cmd.Status) {
			return apperrors.NewConflictError(fmt.Sprintf(
				"order %s cannot move from %s to %s", order.OrderNumber, order.OrderStatus, cmd.Status,
			))
		}

		var note *string
		if n := strings.TrimSpace(cmd.Note); n != "" {
			note = &n
		}

		now := s.now()
		previous := order.OrderStatus
		payment := domain.DerivePaymentStatus(cmd.Status, order.PaymentStatus)

		if err := s.orders.UpdateStatus(ctx, tx, order.ID, cmd.Status, payment, note); err != nil {
			return err
		}

		if err := s.timeline.Insert(ctx, tx, domain.TimelineEntry{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Status:    cmd.Status,
			Note:      note,
			CreatedBy: cmd.ActorID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		order.OrderStatus = cmd.Status
		order.PaymentStatus = payment
		order.AdminNotes = note
		order.UpdatedAt = now
		result = &TransitionResult{Order: *order, Previous: previous}

		kind, ok := domain.NotificationFor(cmd.Status)
		if !ok {
			return nil
		}
		if order.CustomerEmail == "" {
			result.Warnings = append(result.Warnings, warnNoCustomerEmail)
			return nil
		}

		change := domain.StatusChange{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Kind:          kind,
			Status:        cmd.Status,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			ChangedBy:     cmd.ActorID,
			ChangedAt:     now,
		}
		if note != nil {
			change.Reason = *note
		}
		if err := s.outbox.Enqueue(ctx, tx, domain.OutboxEvent{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			Kind:          kind,
			Payload:       change,
			NextAttemptAt: now,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		result.NotificationQueued = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("orderId", result.Order.ID),
		zap.String("orderNumber", result.Order.OrderNumber),
		zap.String("from", string(result.Previous)),
		zap.String("to", string(result.Order.OrderStatus)),
		zap.String("paymentStatus", string(result.Order.PaymentStatus)),
		zap.String("actor", cmd.ActorID),
		zap.Bool("notificationQueued", result.NotificationQueued),
	)
	for _, w := range result.Warnings {
		s.logger.Warn("order status change warning", zap.String("orderId", result.Order.ID), zap.String("warning", w))
	}

	return result, nil
}

// DeleteOrder removes the order together with its timeline and pending
// notifications and returns the deleted order.
func (s *LifecycleService) DeleteOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var (
		deleted         *domain.Order
		timelineRemoved int64
		outboxRemoved   int64
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		order, err := s.orders.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if outboxRemoved, err = s.outbox.DeleteByOrder(ctx, tx, orderID); err != nil {
			return err
		}
		if timelineRemoved, err = s.timeline.DeleteByOrder(ctx, tx, orderID); err != nil {
			return err
		}
		if err := s.orders.Delete(ctx, tx, orderID); err != nil {
			return err
		}
		deleted = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order deleted",
		zap.String("orderId", deleted.ID),
		zap.String("orderNumber", deleted.OrderNumber),
		zap.Int64("timelineEntries", timelineRemoved),
		zap.Int64("outboxEvents", outboxRemoved),
	)
	return deleted, nil
}
