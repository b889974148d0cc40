package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "hazard-claims", cfg.KafkaClaimsTopic)
	assert.Equal(t, "hazard-verification-results", cfg.KafkaResultsTopic)
	assert.Equal(t, "hazard-verify-", cfg.KafkaDispatchPrefix)
	assert.Equal(t, "hazard-claim-verifier", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "claims.db", cfg.DatabaseURL)
	assert.Equal(t, []domain.Source{domain.SourceWeather, domain.SourceNLP}, cfg.RequiredSources)
	assert.Equal(t, domain.DefaultWeights(), cfg.SourceWeights)
	assert.Equal(t, 3, cfg.DispatchMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileGracePeriod)
	assert.Equal(t, 5, cfg.ReconcileMaxAttempts)
	assert.InDelta(t, 10.0, cfg.ReconcileRate, 0)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_CLAIMS_TOPIC", "claims")
	t.Setenv("KAFKA_RESULTS_TOPIC", "results")
	t.Setenv("KAFKA_DISPATCH_PREFIX", "tasks.")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://verifier@db/claims?sslmode=disable")
	t.Setenv("REQUIRED_SOURCES", "weather, nlp, peer")
	t.Setenv("SOURCE_WEIGHTS", "weather=0.5,nlp=0.3,peer=0.2")
	t.Setenv("DISPATCH_MAX_ATTEMPTS", "5")
	t.Setenv("RECONCILE_INTERVAL", "1m")
	t.Setenv("RECONCILE_GRACE_PERIOD", "10m")
	t.Setenv("RECONCILE_MAX_ATTEMPTS", "8")
	t.Setenv("RECONCILE_RATE", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "claims", cfg.KafkaClaimsTopic)
	assert.Equal(t, "results", cfg.KafkaResultsTopic)
	assert.Equal(t, "tasks.", cfg.KafkaDispatchPrefix)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://verifier@db/claims?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []domain.Source{domain.SourceWeather, domain.SourceNLP, domain.SourcePeer}, cfg.RequiredSources)
	assert.InDelta(t, 0.5, cfg.SourceWeights[domain.SourceWeather], 1e-9)
	assert.Equal(t, 5, cfg.DispatchMaxAttempts)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReconcileGracePeriod)
	assert.Equal(t, 8, cfg.ReconcileMaxAttempts)
	assert.InDelta(t, 2.5, cfg.ReconcileRate, 1e-9)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidValuesNameTheVariable(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DATABASE_DRIVER", "mysql"},
		{"REQUIRED_SOURCES", "weather,satellite"},
		{"SOURCE_WEIGHTS", "weather=heavy"},
		{"SOURCE_WEIGHTS", "weather=0.5"},
		{"DISPATCH_MAX_ATTEMPTS", "0"},
		{"RECONCILE_INTERVAL", "soon"},
		{"RECONCILE_GRACE_PERIOD", "-1m"},
		{"RECONCILE_MAX_ATTEMPTS", "many"},
		{"RECONCILE_RATE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
