// Package usecase relays committed outbox events to Kafka and to the workflow engine.
package usecase

import (
	"context"
	"log/slog"
	"time"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/database"
	"github.com/cuenty/fulfillment/internal/outbox/domain"
	outboxService "github.com/cuenty/fulfillment/internal/outbox/service"
)

// Config holds outbox relay configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor relays one outbox event. Process runs inside the claim transaction and a
// returned error schedules a retry. Committed runs once the event's processed status is
// durable, so its side effects happen at most once per event.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
	Committed(ctx context.Context, event *domain.OutboxEvent)
}

// WorkflowTrigger fires the workflows of a domain event.
type WorkflowTrigger interface {
	Execute(ctx context.Context, event string, payload map[string]any) ([]*automationDomain.AutomationLog, error)
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase polls pending outbox events and hands them to an EventProcessor.
// Publishing is at least once: a failed Process is retried on a later round until
// MaxRetries, and a rolled back batch is published again. Committed hooks only run for
// events whose processed status committed.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
	now            func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the relay loop until ctx is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox relay",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox relay")
			return nil
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.ErrorContext(ctx, "failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents claims a batch of pending events and processes them in order. The
// claim holds row locks for the batch, so concurrent relays never share an event. Commit
// hooks run after the batch commits; a failed batch runs none of them.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	var relayed []*domain.OutboxEvent

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		relayed = relayed[:0]

		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		uc.logger.InfoContext(ctx, "processing outbox events", slog.Int("count", len(events)))

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				if err := uc.scheduleRetry(ctx, event, err); err != nil {
					return err
				}
				continue
			}

			now := uc.now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now
			event.LastError = nil

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
			relayed = append(relayed, event)
		}

		return nil
	})
	if err != nil {
		return err
	}

	committed := database.Detach(ctx)
	for _, event := range relayed {
		uc.eventProcessor.Committed(committed, event)
	}
	return nil
}

func (uc *OutboxUseCase) scheduleRetry(ctx context.Context, event *domain.OutboxEvent, cause error) error {
	uc.logger.ErrorContext(ctx, "failed to process outbox event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.Any("error", cause),
	)

	event.Retries++
	lastError := cause.Error()
	event.LastError = &lastError

	if event.Retries >= uc.config.MaxRetries {
		event.Status = domain.OutboxEventStatusFailed
	}

	return uc.outboxRepo.Update(ctx, event)
}

// RelayProcessor publishes an event to Kafka, then fires its workflows.
type RelayProcessor struct {
	publisher outboxService.Publisher
	workflows WorkflowTrigger
	logger    *slog.Logger
}

// NewRelayProcessor creates the processor used by the relay loop.
func NewRelayProcessor(
	publisher outboxService.Publisher,
	workflows WorkflowTrigger,
	logger *slog.Logger,
) *RelayProcessor {
	return &RelayProcessor{
		publisher: publisher,
		workflows: workflows,
		logger:    logger,
	}
}

// Process publishes the event to Kafka.
func (p *RelayProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	if _, err := event.DecodePayload(); err != nil {
		return err
	}
	return p.publisher.Publish(ctx, event)
}

// Committed fires the event's workflows. Every action commits on its own and a failed
// action is recorded in its automation log; a failed lookup is logged and not retried.
func (p *RelayProcessor) Committed(ctx context.Context, event *domain.OutboxEvent) {
	payload, err := event.DecodePayload()
	if err != nil {
		return
	}

	logs, err := p.workflows.Execute(ctx, event.EventType, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fire workflows for outbox event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Any("error", err),
		)
		return
	}

	p.logger.InfoContext(ctx, "outbox event relayed",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID.String()),
		slog.Int("workflows", len(logs)),
	)
}
