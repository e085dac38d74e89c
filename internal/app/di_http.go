package app

import (
	"fmt"

	authService "github.com/cuenty/fulfillment/internal/auth/service"
	"github.com/cuenty/fulfillment/internal/http"
)

type httpComponents struct {
	server        lazy[*http.Server]
	metricsServer lazy[*http.MetricsServer]
}

// SecretService returns the Argon2id hasher for the admin bearer token.
func (c *Container) SecretService() authService.SecretService {
	return authService.NewSecretService()
}

// HTTPServer returns the API server with every route registered.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.http.server.get(func() (*http.Server, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for http server: %w", err)
		}
		webhookHandler, err := c.WebhookHandler()
		if err != nil {
			return nil, err
		}
		paymentHandler, err := c.PaymentHandler()
		if err != nil {
			return nil, err
		}
		orderHandler, err := c.OrderHandler()
		if err != nil {
			return nil, err
		}
		automationHandler, err := c.AutomationHandler()
		if err != nil {
			return nil, err
		}
		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
		server.SetupRouter(c.ctx, c.config, http.Handlers{
			Webhook:    webhookHandler,
			Payment:    paymentHandler,
			Order:      orderHandler,
			Automation: automationHandler,
		}, c.SecretService(), metricsProvider)
		return server, nil
	})
}

// MetricsServer returns the Prometheus server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.http.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return nil, err
		}
		return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
	})
}
