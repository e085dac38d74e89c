package usecase

import (
	"context"
	"log/slog"
	"time"
)

// ExpirySweeper periodically expires pending transactions past their deadline. Webhooks
// expire transactions lazily; the sweeper releases orders whose customer never paid.
type ExpirySweeper struct {
	useCase   PaymentUseCase
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewExpirySweeper creates an ExpirySweeper.
func NewExpirySweeper(useCase PaymentUseCase, interval time.Duration, batchSize int, logger *slog.Logger) *ExpirySweeper {
	return &ExpirySweeper{useCase: useCase, interval: interval, batchSize: batchSize, logger: logger}
}

// Start sweeps every interval until ctx is cancelled.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.logger.Info("starting expiry sweep", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping expiry sweep")
			return nil
		case <-ticker.C:
			if _, err := s.useCase.ExpireStale(ctx, s.batchSize); err != nil {
				s.logger.ErrorContext(ctx, "failed to expire stale transactions", slog.Any("error", err))
			}
		}
	}
}
