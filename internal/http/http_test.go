package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authService "github.com/cuenty/fulfillment/internal/auth/service"
	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	automationHTTP "github.com/cuenty/fulfillment/internal/automation/http"
	automationMocks "github.com/cuenty/fulfillment/internal/automation/usecase/mocks"
	"github.com/cuenty/fulfillment/internal/config"
	"github.com/cuenty/fulfillment/internal/metrics"
	orderHTTP "github.com/cuenty/fulfillment/internal/order/http"
	orderMocks "github.com/cuenty/fulfillment/internal/order/usecase/mocks"
	paymentHTTP "github.com/cuenty/fulfillment/internal/payment/http"
	paymentMocks "github.com/cuenty/fulfillment/internal/payment/usecase/mocks"
	"github.com/cuenty/fulfillment/internal/telemetry"
	webhookHTTP "github.com/cuenty/fulfillment/internal/webhook/http"
	webhookMocks "github.com/cuenty/fulfillment/internal/webhook/usecase/mocks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(uuid.UUID) bool { return true }

type routerFixture struct {
	router     http.Handler
	automation *automationMocks.MockAutomationUseCase
	token      string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := discardLogger()

	secrets := authService.NewSecretService()
	token, tokenHash, err := secrets.GenerateSecret()
	require.NoError(t, err)

	automation := &automationMocks.MockAutomationUseCase{}
	payments := &paymentMocks.MockPaymentUseCase{}
	handlers := Handlers{
		Webhook:    webhookHTTP.NewWebhookHandler(&webhookMocks.MockWebhookUseCase{}, noopEnqueuer{}, logger),
		Payment:    paymentHTTP.NewPaymentHandler(payments, logger),
		Order:      orderHTTP.NewOrderHandler(&orderMocks.MockOrderUseCase{}, payments, logger),
		Automation: automationHTTP.NewAutomationHandler(automation, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := NewServer(nil, "localhost", 0, logger)
	server.SetupRouter(ctx, &config.Config{
		AdminTokenHash:                 tokenHash,
		WebhookRateLimitEnabled:        true,
		WebhookRateLimitRequestsPerSec: 10,
		WebhookRateLimitBurst:          10,
		MetricsNamespace:               "test",
	}, handlers, secrets, nil)

	return &routerFixture{router: server.GetHandler(), automation: automation, token: token}
}

func TestHealthHandler(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, discardLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("Error_NilDB", func(t *testing.T) {
		server := NewServer(nil, "localhost", 8080, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"not_ready","components":{"database":"error"}}`, w.Body.String())
	})

	t.Run("Success_DatabaseAnswers", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 8080, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, w.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Error_PingFails", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing().WillReturnError(assert.AnError)

		server := NewServer(db, "localhost", 8080, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServer_StartWithoutRouter(t *testing.T) {
	server := NewServer(nil, "localhost", 0, discardLogger())

	assert.Error(t, server.Start(context.Background()))
}

func TestRequestContextMiddleware_LogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string { return "req-123" })))
	router.Use(RequestContextMiddleware())
	router.GET("/test", func(c *gin.Context) {
		logger.InfoContext(c.Request.Context(), "inside handler")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-123", record["request_id"])
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(CustomLoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	t.Run("Success_InfoRecord", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?limit=5", nil))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "/ok?limit=5", record["path"])
		assert.EqualValues(t, http.StatusOK, record["status"])
	})

	t.Run("Error_RecoveredPanicLoggedAsError", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	fixture := newRouterFixture(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/workflows"},
		{http.MethodPost, "/workflows"},
		{http.MethodPut, "/workflows/" + uuid.NewString() + "/toggle"},
		{http.MethodGet, "/automation/statistics"},
		{http.MethodPost, "/automation/execute"},
		{http.MethodGet, "/payments/transactions"},
		{http.MethodGet, "/payments/statistics"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders/" + uuid.NewString()},
		{http.MethodPost, "/orders/" + uuid.NewString() + "/payments"},
		{http.MethodPost, "/orders/" + uuid.NewString() + "/cancel"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, strings.NewReader("{}"))
			req.Header.Set("Authorization", "Bearer wrong-token")
			fixture.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AdminRouteWithToken(t *testing.T) {
	fixture := newRouterFixture(t)
	fixture.automation.On("Statistics", mock.Anything).
		Return(&automationDomain.Statistics{TotalWorkflows: 2}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/automation/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+fixture.token)
	fixture.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	fixture.automation.AssertExpectations(t)
}

func TestRouter_WebhookIsPublic(t *testing.T) {
	fixture := newRouterFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(strings.Repeat("x", 70<<10)))
	fixture.router.ServeHTTP(w, req)

	// oversized payloads are refused before reaching the use case
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	fixture := newRouterFixture(t)

	w := httptest.NewRecorder()
	fixture.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	fixture.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestMetricsServer_WithoutProvider(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
