// Package integration runs payment-to-fulfillment scenarios end to end against
// PostgreSQL and MySQL. Tests skip when a database is not reachable.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuenty/fulfillment/internal/app"
	authService "github.com/cuenty/fulfillment/internal/auth/service"
	"github.com/cuenty/fulfillment/internal/config"
	"github.com/cuenty/fulfillment/internal/database"
	inventoryUseCase "github.com/cuenty/fulfillment/internal/inventory/usecase"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
	"github.com/cuenty/fulfillment/internal/testutil"
)

type fixture struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	token     string
	driver    string
}

func setup(t *testing.T, driver string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var (
		db  *sql.DB
		dsn string
	)
	switch driver {
	case "postgres":
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	case "mysql":
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}
	t.Cleanup(func() { testutil.TeardownDB(t, db) })

	token, hash, err := authService.NewSecretService().GenerateSecret()
	require.NoError(t, err)

	container := app.NewContainer(&config.Config{
		ServerHost:           "localhost",
		ServerPort:           0,
		DBDriver:             driver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Minute,
		LogLevel:             "error",
		AdminTokenHash:       hash,
		WebhookWorkers:       1,
		WebhookQueueSize:     64,
		WebhookReplayMinAge:  0,
		WebhookMaxAttempts:   10,
		OutboxInterval:       time.Second,
		OutboxBatchSize:      50,
		OutboxMaxRetries:     5,
		ReferenceNodeID:      1,
		Currency:             "MXN",
		MetricsNamespace:     "fulfillment",
	})
	t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

	server, err := container.HTTPServer()
	require.NoError(t, err)
	httpServer := httptest.NewServer(server.GetHandler())
	t.Cleanup(httpServer.Close)

	payments, err := container.PaymentUseCase()
	require.NoError(t, err)
	_, err = payments.CreateAccount(context.Background(), paymentUseCase.CreateAccountInput{
		Bank:     "STP",
		Holder:   "Cuenty SA de CV",
		CLABE:    "646180157000000004",
		Priority: 10,
		Active:   true,
	})
	require.NoError(t, err)

	return &fixture{container: container, db: db, server: httpServer, token: token, driver: driver}
}

func (f *fixture) request(t *testing.T, method, path string, body any, admin bool) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(respBody) > 0 {
		require.NoError(t, json.Unmarshal(respBody, &decoded), string(respBody))
	}
	return resp.StatusCode, decoded
}

func (f *fixture) importCredentials(t *testing.T, n int) {
	t.Helper()
	inventory, err := f.container.InventoryUseCase()
	require.NoError(t, err)

	inputs := make([]inventoryUseCase.ImportInput, 0, n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, inventoryUseCase.ImportInput{
			ServiceID: "netflix",
			PlanID:    "premium",
			Username:  uuid.NewString() + "@example.com",
			Password:  "secret",
		})
	}
	imported, err := inventory.Import(context.Background(), inputs)
	require.NoError(t, err)
	require.Equal(t, n, imported)
}

func (f *fixture) createWorkflow(t *testing.T) {
	t.Helper()
	status, body := f.request(t, http.MethodPost, "/workflows", map[string]any{
		"name":         "deliver credentials",
		"triggerEvent": "payment.confirmed",
		"actions": []map[string]any{
			{"type": "assign_credentials"},
			{"type": "notification", "params": map[string]any{"channel": "email", "template": "payment_received"}},
		},
		"priority": 10,
	}, true)
	require.Equal(t, http.StatusCreated, status, body)
}

func (f *fixture) createOrder(t *testing.T, items int) string {
	t.Helper()
	orderItems := make([]map[string]any, 0, items)
	for i := 0; i < items; i++ {
		orderItems = append(orderItems, map[string]any{
			"service_id": "netflix",
			"plan_id":    "premium",
			"unit_price": "199.00",
		})
	}
	status, body := f.request(t, http.MethodPost, "/orders", map[string]any{
		"customer_email": "buyer@example.com",
		"items":          orderItems,
	}, true)
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func (f *fixture) checkout(t *testing.T, orderID, method string) map[string]any {
	t.Helper()
	status, body := f.request(t, http.MethodPost, "/orders/"+orderID+"/payments", map[string]any{"method": method}, true)
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

// deliver posts a webhook, then drives the background processing the server would run.
func (f *fixture) deliver(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	ctx := context.Background()

	status, body := f.request(t, http.MethodPost, "/payments/webhook", payload, false)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["accepted"])

	eventID, err := uuid.Parse(body["eventId"].(string))
	require.NoError(t, err)

	webhooks, err := f.container.WebhookUseCase()
	require.NoError(t, err)
	_, err = webhooks.ProcessEvent(ctx, eventID)
	require.NoError(t, err)

	outbox, err := f.container.OutboxUseCase()
	require.NoError(t, err)
	require.NoError(t, outbox.ProcessEvents(ctx))

	return body
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	dialect, err := database.DialectFor(f.driver)
	require.NoError(t, err)

	var n int
	require.NoError(t, f.db.QueryRow(dialect.Rebind(query), args...).Scan(&n))
	return n
}

func forEachDriver(t *testing.T, run func(t *testing.T, f *fixture)) {
	for _, driver := range []string{"postgres", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			run(t, setup(t, driver))
		})
	}
}

func TestHappyPathAndDuplicateWebhook(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		f.importCredentials(t, 1)
		f.createWorkflow(t)
		orderID := f.createOrder(t, 1)

		checkout := f.checkout(t, orderID, "spei")
		reference := checkout["reference"].(string)
		assert.Equal(t, "199.00", checkout["amount"])

		payload := []byte(`{"reference":"` + reference + `","amount":"199.00","event":"payment.confirmed"}`)
		first := f.deliver(t, payload)

		status, txn := f.request(t, http.MethodGet, "/payments/transactions/"+reference, nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "completed", txn["state"])

		status, order := f.request(t, http.MethodGet, "/orders/"+orderID, nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "paid", order["state"])
		items := order["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, true, items[0].(map[string]any)["assigned"])

		second := f.deliver(t, payload)
		assert.Equal(t, first["eventId"], second["eventId"])

		status, order = f.request(t, http.MethodGet, "/orders/"+orderID, nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "paid", order["state"])

		assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM credentials WHERE state = ?`, "assigned"))
		assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM outbox_events WHERE event_type = ?`, "payment.confirmed"))
		assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM automation_logs`))
	})
}

func TestCancelledOrderRejectsTransition(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		orderID := f.createOrder(t, 1)

		status, order := f.request(t, http.MethodPost, "/orders/"+orderID+"/cancel", nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "cancelled", order["state"])

		status, _ = f.request(t, http.MethodPost, "/orders/"+orderID+"/cancel", nil, true)
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestExpiredTransactionWebhook(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		orderID := f.createOrder(t, 1)
		checkout := f.checkout(t, orderID, "codi")
		reference := checkout["reference"].(string)
		assert.NotEmpty(t, checkout["qr_code"])

		dialect, err := database.DialectFor(f.driver)
		require.NoError(t, err)
		_, err = f.db.Exec(dialect.Rebind(`UPDATE payment_transactions SET expires_at = ? WHERE reference = ?`),
			time.Now().UTC().Add(-time.Minute), reference)
		require.NoError(t, err)

		f.deliver(t, []byte(`{"referencia":"`+reference+`","monto":199.00}`))

		status, txn := f.request(t, http.MethodGet, "/payments/transactions/"+reference, nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "expired", txn["state"])

		status, order := f.request(t, http.MethodGet, "/orders/"+orderID, nil, true)
		require.Equal(t, http.StatusOK, status)
		assert.NotEqual(t, "paid", order["state"])

		assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM webhook_events WHERE outcome = ? AND reason = ?`,
			"rejected", "expired"))
		assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM outbox_events WHERE event_type = ?`, "payment.confirmed"))
	})
}

func TestConcurrentCredentialClaims(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		const available, requested = 3, 5
		f.importCredentials(t, available)

		orderID, err := uuid.Parse(f.createOrder(t, requested))
		require.NoError(t, err)

		orders, err := f.container.OrderUseCase()
		require.NoError(t, err)
		order, err := orders.Get(context.Background(), orderID)
		require.NoError(t, err)

		inventory, err := f.container.InventoryUseCase()
		require.NoError(t, err)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			claimed = map[uuid.UUID]bool{}
			misses  int
		)
		for _, item := range order.Items {
			wg.Add(1)
			go func(itemID uuid.UUID) {
				defer wg.Done()
				credential, err := inventory.ClaimAvailable(context.Background(), "netflix", "premium", itemID)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					misses++
					return
				}
				assert.False(t, claimed[credential.ID], "credential claimed twice")
				claimed[credential.ID] = true
			}(item.ID)
		}
		wg.Wait()

		assert.Len(t, claimed, available)
		assert.Equal(t, requested-available, misses)
		assert.Equal(t, available, f.count(t, `SELECT COUNT(*) FROM credentials WHERE state = ?`, "assigned"))
	})
}

func TestAdminRoutesRequireToken(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		status, body := f.request(t, http.MethodGet, "/workflows", nil, false)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", body["error"])

		status, _ = f.request(t, http.MethodGet, "/health", nil, false)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestMalformedWebhook(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f *fixture) {
		status, body := f.request(t, http.MethodPost, "/payments/webhook", []byte(`{"amount":"10.00"}`), false)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "malformed_webhook", body["error"])
		assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM webhook_events WHERE outcome = ?`, "malformed"))
	})
}
