package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cuenty/fulfillment/internal/database"
	webhookHTTP "github.com/cuenty/fulfillment/internal/webhook/http"
	webhookRepository "github.com/cuenty/fulfillment/internal/webhook/repository"
	webhookService "github.com/cuenty/fulfillment/internal/webhook/service"
	webhookUseCase "github.com/cuenty/fulfillment/internal/webhook/usecase"
)

// webhookReplayBatchSize bounds the events re-dispatched per replay round.
const webhookReplayBatchSize = 100

type webhookComponents struct {
	repository lazy[webhookUseCase.WebhookEventRepository]
	cache      lazy[webhookService.CompletionCache]
	useCase    lazy[webhookUseCase.WebhookUseCase]
	dispatcher lazy[*webhookUseCase.Dispatcher]
	replayer   lazy[*webhookUseCase.Replayer]
	handler    lazy[*webhookHTTP.WebhookHandler]
}

// WebhookEventRepository returns the webhook event repository for the configured driver.
func (c *Container) WebhookEventRepository() (webhookUseCase.WebhookEventRepository, error) {
	return c.webhook.repository.get(func() (webhookUseCase.WebhookEventRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for webhook event repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return webhookRepository.NewMySQLWebhookEventRepository(db), nil
		}
		return webhookRepository.NewPostgreSQLWebhookEventRepository(db), nil
	})
}

// CompletionCache returns the Redis completion cache, or a no-op cache when REDIS_ADDR is empty.
func (c *Container) CompletionCache() (webhookService.CompletionCache, error) {
	return c.webhook.cache.get(func() (webhookService.CompletionCache, error) {
		if c.config.RedisAddr == "" {
			return webhookService.NewNoOpCompletionCache(), nil
		}

		client := redis.NewClient(&redis.Options{Addr: c.config.RedisAddr})
		c.onShutdown("redis", func(context.Context) error { return client.Close() })

		return webhookService.NewRedisCompletionCache(
			client,
			c.config.MetricsNamespace,
			c.config.RedisCompletionTTL,
		), nil
	})
}

// WebhookUseCase returns webhook ingestion and reconciliation, decorated with metrics.
func (c *Container) WebhookUseCase() (webhookUseCase.WebhookUseCase, error) {
	return c.webhook.useCase.get(func() (webhookUseCase.WebhookUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for webhook use case: %w", err)
		}
		eventRepo, err := c.WebhookEventRepository()
		if err != nil {
			return nil, err
		}
		payments, err := c.PaymentUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get payment use case for webhook use case: %w", err)
		}
		cache, err := c.CompletionCache()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := webhookUseCase.NewWebhookUseCase(
			webhookUseCase.Config{
				ReplayMinAge: c.config.WebhookReplayMinAge,
				MaxAttempts:  c.config.WebhookMaxAttempts,
			},
			txManager,
			eventRepo,
			payments,
			cache,
			c.Logger(),
		)
		return webhookUseCase.NewWebhookUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// WebhookDispatcher returns the worker pool that processes accepted webhooks.
func (c *Container) WebhookDispatcher() (*webhookUseCase.Dispatcher, error) {
	return c.webhook.dispatcher.get(func() (*webhookUseCase.Dispatcher, error) {
		useCase, err := c.WebhookUseCase()
		if err != nil {
			return nil, err
		}
		dispatcher := webhookUseCase.NewDispatcher(webhookUseCase.DispatcherConfig{
			Workers:   c.config.WebhookWorkers,
			QueueSize: c.config.WebhookQueueSize,
		}, useCase, c.Logger())

		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider != nil {
			err := provider.RegisterGauge("webhook_queue_depth", "Accepted webhook events waiting for a worker",
				dispatcher.QueueDepth)
			if err != nil {
				return nil, err
			}
		}
		return dispatcher, nil
	})
}

// WebhookReplayer returns the periodic replay of unprocessed webhooks.
func (c *Container) WebhookReplayer() (*webhookUseCase.Replayer, error) {
	return c.webhook.replayer.get(func() (*webhookUseCase.Replayer, error) {
		useCase, err := c.WebhookUseCase()
		if err != nil {
			return nil, err
		}
		return webhookUseCase.NewReplayer(
			useCase,
			c.config.WebhookReplayInterval,
			webhookReplayBatchSize,
			c.Logger(),
		), nil
	})
}

// WebhookHandler returns the webhook endpoint handler.
func (c *Container) WebhookHandler() (*webhookHTTP.WebhookHandler, error) {
	return c.webhook.handler.get(func() (*webhookHTTP.WebhookHandler, error) {
		useCase, err := c.WebhookUseCase()
		if err != nil {
			return nil, err
		}
		dispatcher, err := c.WebhookDispatcher()
		if err != nil {
			return nil, err
		}
		return webhookHTTP.NewWebhookHandler(useCase, dispatcher, c.Logger()), nil
	})
}
