package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

// Mock implementations

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	f.calls++
	return fn(ctx, nil)
}

type mockOrderRepository struct {
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	UpdateStatusFunc      func(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, payment domain.PaymentStatus, notes *string) error
	DeleteFunc            func(ctx context.Context, tx *sql.Tx, id string) error
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, payment domain.PaymentStatus, notes *string) error {
	return m.UpdateStatusFunc(ctx, tx, id, status, payment, notes)
}

func (m *mockOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}

type mockTimelineRepository struct {
	entries           []domain.TimelineEntry
	InsertErr         error
	DeleteByOrderFunc func(ctx context.Context, tx *sql.Tx, orderID string) (int64, error)
}

func (m *mockTimelineRepository) Insert(ctx context.Context, tx *sql.Tx, entry domain.TimelineEntry) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockTimelineRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
	return m.DeleteByOrderFunc(ctx, tx, orderID)
}

type mockOutboxRepository struct {
	events     []domain.OutboxEvent
	EnqueueErr error
	deleted    []string
}

func (m *mockOutboxRepository) Enqueue(ctx context.Context, tx *sql.Tx, evt domain.OutboxEvent) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockOutboxRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
	m.deleted = append(m.deleted, orderID)
	return 0, nil
}

// Helpers

type updateCall struct {
	status  domain.OrderStatus
	payment domain.PaymentStatus
	notes   *string
}

func stubOrders(order *domain.Order, updates *[]updateCall) *mockOrderRepository {
	return &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
			if order == nil || id != order.ID {
				return nil, apperrors.NewNotFoundError("order not found")
			}
			copied := *order
			return &copied, nil
		},
		UpdateStatusFunc: func(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, payment domain.PaymentStatus, notes *string) error {
			*updates = append(*updates, updateCall{status: status, payment: payment, notes: notes})
			return nil
		},
		DeleteFunc: func(ctx context.Context, tx *sql.Tx, id string) error {
			return nil
		},
	}
}

func awaitingOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		OrderNumber:   "TRK-LOYW3V28",
		CustomerName:  "Mona Hassan",
		CustomerEmail: "mona@example.com",
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusAwaitingPayment,
	}
}

func newTestLifecycleService(orders OrderRepository, timeline TimelineRepository, outbox OutboxRepository) *LifecycleService {
	svc := NewLifecycleService(&fakeTxRunner{}, orders, timeline, outbox, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// Tests

func TestApplyTransition_ApproveQueuesNotification(t *testing.T) {
	var updates []updateCall
	timeline := &mockTimelineRepository{}
	outbox := &mockOutboxRepository{}
	svc := newTestLifecycleService(stubOrders(awaitingOrder(), &updates), timeline, outbox)

	result, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusConfirmed,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusAwaitingPayment, result.Previous)
	assert.Equal(t, domain.OrderStatusConfirmed, result.Order.OrderStatus)
	assert.Equal(t, domain.PaymentStatusPaid, result.Order.PaymentStatus)
	assert.True(t, result.NotificationQueued)
	assert.Empty(t, result.Warnings)

	require.Len(t, updates, 1)
	assert.Equal(t, domain.PaymentStatusPaid, updates[0].payment)
	assert.Nil(t, updates[0].notes)

	require.Len(t, timeline.entries, 1)
	assert.Equal(t, "admin-1", timeline.entries[0].CreatedBy)

	require.Len(t, outbox.events, 1)
	evt := outbox.events[0]
	assert.Equal(t, domain.NotificationOrderApproved, evt.Kind)
	assert.Equal(t, "TRK-LOYW3V28", evt.Payload.OrderNumber)
	assert.Equal(t, "mona@example.com", evt.Payload.CustomerEmail)
}

func TestApplyTransition_RejectRecordsNote(t *testing.T) {
	var updates []updateCall
	timeline := &mockTimelineRepository{}
	outbox := &mockOutboxRepository{}
	svc := newTestLifecycleService(stubOrders(awaitingOrder(), &updates), timeline, outbox)

	result, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusPaymentFailed,
		Note:    "  Screenshot unclear ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, result.Order.PaymentStatus)

	require.Len(t, timeline.entries, 1)
	entry := timeline.entries[0]
	assert.Equal(t, domain.OrderStatusPaymentFailed, entry.Status)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "Screenshot unclear", *entry.Note)

	require.NotNil(t, updates[0].notes)
	assert.Equal(t, "Screenshot unclear", *updates[0].notes)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, domain.NotificationOrderRejected, outbox.events[0].Kind)
	assert.Equal(t, "Screenshot unclear", outbox.events[0].Payload.Reason)
}

func TestApplyTransition_NonNotifyingStatusKeepsPayment(t *testing.T) {
	order := awaitingOrder()
	order.OrderStatus = domain.OrderStatusConfirmed
	order.PaymentStatus = domain.PaymentStatusPaid

	var updates []updateCall
	outbox := &mockOutboxRepository{}
	svc := newTestLifecycleService(stubOrders(order, &updates), &mockTimelineRepository{}, outbox)

	result, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, result.Order.PaymentStatus)
	assert.False(t, result.NotificationQueued)
	assert.Empty(t, outbox.events)
}

func TestApplyTransition_DisallowedTransition(t *testing.T) {
	order := awaitingOrder()
	order.OrderStatus = domain.OrderStatusDelivered

	var updates []updateCall
	timeline := &mockTimelineRepository{}
	svc := newTestLifecycleService(stubOrders(order, &updates), timeline, &mockOutboxRepository{})

	_, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusCancelled,
	})
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Empty(t, updates)
	assert.Empty(t, timeline.entries)
}

func TestApplyTransition_MissingEmailWarns(t *testing.T) {
	order := awaitingOrder()
	order.CustomerEmail = ""

	var updates []updateCall
	outbox := &mockOutboxRepository{}
	svc := newTestLifecycleService(stubOrders(order, &updates), &mockTimelineRepository{}, outbox)

	result, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.False(t, result.NotificationQueued)
	assert.Equal(t, []string{warnNoCustomerEmail}, result.Warnings)
	assert.Empty(t, outbox.events)
}

func TestApplyTransition_OutboxFailureAborts(t *testing.T) {
	var updates []updateCall
	outbox := &mockOutboxRepository{EnqueueErr: errors.New("connection reset")}
	svc := newTestLifecycleService(stubOrders(awaitingOrder(), &updates), &mockTimelineRepository{}, outbox)

	result, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "order-1",
		ActorID: "admin-1",
		Status:  domain.OrderStatusConfirmed,
	})
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestApplyTransition_NotFound(t *testing.T) {
	var updates []updateCall
	svc := newTestLifecycleService(stubOrders(nil, &updates), &mockTimelineRepository{}, &mockOutboxRepository{})

	_, err := svc.ApplyTransition(context.Background(), TransitionCommand{
		OrderID: "missing",
		Status:  domain.OrderStatusConfirmed,
	})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestDeleteOrder_RemovesChildren(t *testing.T) {
	var (
		updates        []updateCall
		deletedOrders  []string
		timelineOrders []string
	)
	orders := stubOrders(awaitingOrder(), &updates)
	orders.DeleteFunc = func(ctx context.Context, tx *sql.Tx, id string) error {
		deletedOrders = append(deletedOrders, id)
		return nil
	}
	timeline := &mockTimelineRepository{
		DeleteByOrderFunc: func(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
			timelineOrders = append(timelineOrders, orderID)
			return 3, nil
		},
	}
	outbox := &mockOutboxRepository{}
	svc := newTestLifecycleService(orders, timeline, outbox)

	deleted, err := svc.DeleteOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "TRK-LOYW3V28", deleted.OrderNumber)
	assert.Equal(t, []string{"order-1"}, deletedOrders)
	assert.Equal(t, []string{"order-1"}, timelineOrders)
	assert.Equal(t, []string{"order-1"}, outbox.deleted)
}
