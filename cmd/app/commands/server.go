package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/cuenty/fulfillment/internal/app"
	"github.com/cuenty/fulfillment/internal/config"
	"github.com/cuenty/fulfillment/internal/telemetry"
)

const (
	serviceName     = "fulfillment"
	shutdownTimeout = 30 * time.Second
)

// RunServer starts the API server together with the webhook workers, the webhook
// replay, the outbox relay and the expiry sweep. It blocks until SIGINT/SIGTERM or
// until one of them fails, then stops everything gracefully.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	shutdownTracer, err := telemetry.SetupTracer(serviceName)
	if err != nil {
		return fmt.Errorf("failed to setup tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.Any("error", err))
		}
	}()

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	dispatcher, err := container.WebhookDispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize webhook dispatcher: %w", err)
	}
	replayer, err := container.WebhookReplayer()
	if err != nil {
		return fmt.Errorf("failed to initialize webhook replayer: %w", err)
	}
	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}
	sweeper, err := container.ExpirySweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize expiry sweeper: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})
	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(ctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return replayer.Start(ctx) })
	g.Go(func() error { return outbox.Start(ctx) })
	g.Go(func() error { return sweeper.Start(ctx) })

	// Servers only return after Shutdown, so this goroutine turns cancellation into a
	// graceful stop.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
