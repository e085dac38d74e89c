package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
)

// EventProcessor applies one stored webhook event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error)
}

// DispatcherConfig holds the worker pool configuration.
type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// Dispatcher processes accepted webhook events out of band on a fixed pool of workers
// so the provider is acknowledged before payment and workflow work runs.
type Dispatcher struct {
	config    DispatcherConfig
	processor EventProcessor
	queue     chan uuid.UUID
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. Non-positive sizes fall back to one worker and an
// unbuffered queue.
func NewDispatcher(config DispatcherConfig, processor EventProcessor, logger *slog.Logger) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 30 * time.Second
	}
	return &Dispatcher{
		config:    config,
		processor: processor,
		queue:     make(chan uuid.UUID, config.QueueSize),
		logger:    logger,
	}
}

// QueueDepth returns the number of accepted events waiting for a worker.
func (d *Dispatcher) QueueDepth() int64 {
	return int64(len(d.queue))
}

// Enqueue hands an event to the workers without blocking. It returns false when the
// queue is full; the event stays unprocessed and is picked up by replay.
func (d *Dispatcher) Enqueue(id uuid.UUID) bool {
	select {
	case d.queue <- id:
		return true
	default:
		d.logger.Warn("webhook queue full, deferring to replay", slog.String("webhook_event_id", id.String()))
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled. An event already taken by
// a worker is processed to completion even after cancellation.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("starting webhook dispatcher",
		slog.Int("workers", d.config.Workers),
		slog.Int("queue_size", d.config.QueueSize),
	)

	g, ctx := errgroup.WithContext(ctx)
	for range d.config.Workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-d.queue:
					d.process(ctx, id)
				}
			}
		})
	}

	err := g.Wait()
	d.logger.Info("stopping webhook dispatcher")
	return err
}

func (d *Dispatcher) process(ctx context.Context, id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.ProcessTimeout)
	defer cancel()

	// Failures are already recorded on the event for replay.
	_, _ = d.processor.ProcessEvent(ctx, id)
}

// Replayer periodically re-dispatches unprocessed events that no worker finished,
// such as events deferred by a full queue or rolled back by a failure.
type Replayer struct {
	useCase   WebhookUseCase
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewReplayer creates a Replayer.
func NewReplayer(useCase WebhookUseCase, interval time.Duration, batchSize int, logger *slog.Logger) *Replayer {
	return &Replayer{useCase: useCase, interval: interval, batchSize: batchSize, logger: logger}
}

// Start runs replay rounds every interval until ctx is cancelled.
func (r *Replayer) Start(ctx context.Context) error {
	r.logger.Info("starting webhook replay", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping webhook replay")
			return nil
		case <-ticker.C:
			if _, err := r.useCase.Replay(ctx, r.batchSize); err != nil {
				r.logger.Error("failed to replay webhook events", slog.Any("error", err))
			}
		}
	}
}
