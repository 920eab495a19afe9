package notification

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/config"
	"github.com/moaz267/furniture/internal/infrastructure/kafka"
	"github.com/moaz267/furniture/internal/infrastructure/mail"
	"github.com/moaz267/furniture/internal/notification/service"
	"github.com/moaz267/furniture/internal/order/repository"
)

type Module struct {
	Relay     *service.Relay
	publisher *kafka.Publisher
}

// NewModule wires the outbox relay with the configured mail driver and, when
// brokers are set, a Kafka publisher.
func NewModule(db *sql.DB, cfg *config.Config, logger *zap.Logger) (*Module, error) {
	sender, err := mail.New(cfg.Notify, logger)
	if err != nil {
		return nil, err
	}

	m := &Module{}
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		m.publisher, err = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, fmt.Errorf("starting event publisher: %w", err)
		}
		publisher = m.publisher
	}

	m.Relay = service.NewRelay(
		repository.NewMySQLOutboxRepository(db),
		service.NewMailNotifier(sender, cfg.Notify.From),
		publisher,
		cfg.Outbox.BatchSize,
		cfg.Outbox.MaxAttempts,
		logger,
	)
	return m, nil
}

func (m *Module) Close() {
	if m.publisher != nil {
		m.publisher.Close()
	}
}
