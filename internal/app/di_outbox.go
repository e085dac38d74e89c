package app

import (
	"context"
	"fmt"

	"github.com/cuenty/fulfillment/internal/database"
	outboxRepository "github.com/cuenty/fulfillment/internal/outbox/repository"
	outboxService "github.com/cuenty/fulfillment/internal/outbox/service"
	outboxUseCase "github.com/cuenty/fulfillment/internal/outbox/usecase"
)

type outboxComponents struct {
	repository lazy[*outboxRepository.OutboxEventRepository]
	publisher  lazy[outboxService.Publisher]
	useCase    lazy[*outboxUseCase.OutboxUseCase]
}

// OutboxRepository returns the outbox event repository for the configured driver.
func (c *Container) OutboxRepository() (*outboxRepository.OutboxEventRepository, error) {
	return c.outbox.repository.get(func() (*outboxRepository.OutboxEventRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return outboxRepository.NewMySQLOutboxEventRepository(db), nil
		}
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	})
}

// OutboxPublisher returns the Kafka publisher, or a no-op publisher when KAFKA_BROKERS is empty.
func (c *Container) OutboxPublisher() (outboxService.Publisher, error) {
	return c.outbox.publisher.get(func() (outboxService.Publisher, error) {
		brokers := c.config.KafkaBrokerList()
		if len(brokers) == 0 {
			return outboxService.NewNoOpPublisher(), nil
		}

		publisher := outboxService.NewKafkaPublisher(outboxService.NewKafkaWriter(brokers, c.config.KafkaTopic))
		c.onShutdown("kafka publisher", func(context.Context) error { return publisher.Close() })
		return publisher, nil
	})
}

// OutboxUseCase returns the relay that publishes committed domain events and fires
// their workflows.
func (c *Container) OutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	return c.outbox.useCase.get(func() (*outboxUseCase.OutboxUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return nil, err
		}
		publisher, err := c.OutboxPublisher()
		if err != nil {
			return nil, err
		}
		automation, err := c.AutomationUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get automation use case for outbox use case: %w", err)
		}

		logger := c.Logger()
		return outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
			},
			txManager,
			outboxRepo,
			outboxUseCase.NewRelayProcessor(publisher, automation, logger),
			logger,
		), nil
	})
}
