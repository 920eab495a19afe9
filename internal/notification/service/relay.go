package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
)

type Outbox interface {
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, maxAttempts int, limit int) ([]domain.OutboxEvent, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, nextAttemptAt time.Time, cause string) error
}

type Notifier interface {
	Notify(ctx context.Context, change domain.StatusChange) error
}

// EventPublisher mirrors dispatched changes to an event stream.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, change domain.StatusChange) error
}

const (
	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = 30 * time.Minute
	claimLease     = 2 * time.Minute
)

type Relay struct {
	outbox      Outbox
	notifier    Notifier
	publisher   EventPublisher
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

// NewRelay builds the outbox relay. publisher may be nil.
func NewRelay(outbox Outbox, notifier Notifier, publisher EventPublisher, batchSize, maxAttempts int, logger *zap.Logger) *Relay {
	return &Relay{
		outbox:      outbox,
		notifier:    notifier,
		publisher:   publisher,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}
}

// Tick dispatches one batch of due events and returns how many were sent.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	now := r.now().UTC()
	events, err := r.outbox.ClaimDue(ctx, now, claimLease, r.maxAttempts, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, evt := range events {
		if r.dispatch(ctx, evt) {
			sent++
		}
	}
	return sent, nil
}

func (r *Relay) dispatch(ctx context.Context, evt domain.OutboxEvent) bool {
	if err := r.notifier.Notify(ctx, evt.Payload); err != nil {
		attempt := evt.Attempts + 1
		next := r.now().UTC().Add(RetryDelay(attempt))
		if markErr := r.outbox.MarkFailed(ctx, evt.ID, next, err.Error()); markErr != nil {
			r.logger.Error("failed to record notification failure", zap.String("eventId", evt.ID), zap.Error(markErr))
		}

		if attempt >= r.maxAttempts {
			r.logger.Error("notification abandoned",
				zap.String("eventId", evt.ID),
				zap.String("orderNumber", evt.Payload.OrderNumber),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
		} else {
			r.logger.Warn("notification failed",
				zap.String("eventId", evt.ID),
				zap.Int("attempt", attempt),
				zap.Time("nextAttemptAt", next),
				zap.Error(err),
			)
		}
		return false
	}

	if err := r.outbox.MarkSent(ctx, evt.ID, r.now().UTC()); err != nil {
		r.logger.Error("failed to mark notification sent", zap.String("eventId", evt.ID), zap.Error(err))
	}

	if r.publisher != nil {
		if err := r.publisher.PublishStatusChange(ctx, evt.Payload); err != nil {
			r.logger.Warn("status change not published", zap.String("orderId", evt.OrderID), zap.Error(err))
		}
	}

	r.logger.Info("notification sent",
		zap.String("eventId", evt.ID),
		zap.String("orderNumber", evt.Payload.OrderNumber),
		zap.String("kind", string(evt.Kind)),
	)
	return true
}

// Run ticks every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay tick failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RetryDelay doubles from 30s per attempt, capped at 30m.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseRetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
