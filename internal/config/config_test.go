package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Empty(t, cfg.AdminTokenHash)
				assert.True(t, cfg.WebhookRateLimitEnabled)
				assert.Equal(t, 20.0, cfg.WebhookRateLimitRequestsPerSec)
				assert.Equal(t, 40, cfg.WebhookRateLimitBurst)
				assert.Equal(t, 4, cfg.WebhookWorkers)
				assert.Equal(t, 256, cfg.WebhookQueueSize)
				assert.Equal(t, 30*time.Second, cfg.WebhookReplayInterval)
				assert.Equal(t, time.Minute, cfg.WebhookReplayMinAge)
				assert.Equal(t, 10, cfg.WebhookMaxAttempts)
				assert.Equal(t, 2*time.Second, cfg.OutboxInterval)
				assert.Equal(t, 50, cfg.OutboxBatchSize)
				assert.Equal(t, 5, cfg.OutboxMaxRetries)
				assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
				assert.Equal(t, 500, cfg.ExpirySweepBatchSize)
				assert.Equal(t, int64(1), cfg.ReferenceNodeID)
				assert.Equal(t, "MXN", cfg.Currency)
				assert.Empty(t, cfg.RedisAddr)
				assert.Equal(t, 72*time.Hour, cfg.RedisCompletionTTL)
				assert.Empty(t, cfg.KafkaBrokerList())
				assert.Equal(t, "payments.events", cfg.KafkaTopic)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "fulfillment", cfg.MetricsNamespace)
				assert.Equal(t, 8081, cfg.MetricsPort)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/fulfillment",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/fulfillment", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom webhook configuration",
			envVars: map[string]string{
				"WEBHOOK_WORKERS":         "8",
				"WEBHOOK_QUEUE_SIZE":      "1024",
				"WEBHOOK_REPLAY_INTERVAL": "5",
				"WEBHOOK_REPLAY_MIN_AGE":  "15",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8, cfg.WebhookWorkers)
				assert.Equal(t, 1024, cfg.WebhookQueueSize)
				assert.Equal(t, 5*time.Second, cfg.WebhookReplayInterval)
				assert.Equal(t, 15*time.Second, cfg.WebhookReplayMinAge)
			},
		},
		{
			name: "load kafka brokers",
			envVars: map[string]string{
				"KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092,,",
				"KAFKA_TOPIC":   "payments",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
				assert.Equal(t, "payments", cfg.KafkaTopic)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	for level, expected := range map[string]string{
		"debug": "debug",
		"info":  "release",
		"warn":  "release",
		"error": "release",
		"":      "release",
	} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, expected, cfg.GetGinMode(), "level %q", level)
	}
}
