package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers        []string
	KafkaClaimsTopic    string
	KafkaResultsTopic   string
	KafkaDispatchPrefix string
	KafkaGroupID        string
	HTTPAddr            string
	LogLevel            string
	LogFormat           string
	ShutdownTimeout     time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Durable claim store.
	DatabaseDriver string
	DatabaseURL    string

	// Verification policy.
	RequiredSources     []domain.Source
	SourceWeights       domain.Weights
	DispatchMaxAttempts int

	// Reconciliation sweep.
	ReconcileInterval    time.Duration
	ReconcileGracePeriod time.Duration
	ReconcileMaxAttempts int
	ReconcileRate        float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	required, err := domain.ParseSourceList(sharedcfg.EnvOrDefault("REQUIRED_SOURCES", "weather,nlp"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUIRED_SOURCES: %w", err)
	}

	weights := domain.DefaultWeights()
	if s := sharedcfg.EnvOrDefault("SOURCE_WEIGHTS", ""); s != "" {
		if weights, err = domain.ParseWeights(s); err != nil {
			return nil, fmt.Errorf("invalid SOURCE_WEIGHTS: %w", err)
		}
	}

	dispatchAttempts, err := parsePositiveInt("DISPATCH_MAX_ATTEMPTS", "3")
	if err != nil {
		return nil, err
	}
	reconcileInterval, err := parsePositiveDuration("RECONCILE_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	gracePeriod, err := parsePositiveDuration("RECONCILE_GRACE_PERIOD", "5m")
	if err != nil {
		return nil, err
	}
	reconcileAttempts, err := parsePositiveInt("RECONCILE_MAX_ATTEMPTS", "5")
	if err != nil {
		return nil, err
	}
	reconcileRate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RECONCILE_RATE", "10"), 64)
	if err != nil || reconcileRate < 0 {
		return nil, errors.New("invalid RECONCILE_RATE")
	}

	cfg := &Config{
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaClaimsTopic:    sharedcfg.EnvOrDefault("KAFKA_CLAIMS_TOPIC", "hazard-claims"),
		KafkaResultsTopic:   sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "hazard-verification-results"),
		KafkaDispatchPrefix: sharedcfg.EnvOrDefault("KAFKA_DISPATCH_PREFIX", "hazard-verify-"),
		KafkaGroupID:        sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hazard-claim-verifier"),
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		BatchSize:           batchSize,
		BatchFlushInterval:  flushInterval,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    sharedcfg.EnvOrDefault("DATABASE_URL", "claims.db"),

		RequiredSources:     required,
		SourceWeights:       weights,
		DispatchMaxAttempts: dispatchAttempts,

		ReconcileInterval:    reconcileInterval,
		ReconcileGracePeriod: gracePeriod,
		ReconcileMaxAttempts: reconcileAttempts,
		ReconcileRate:        reconcileRate,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaClaimsTopic == "" {
		return nil, errors.New("KAFKA_CLAIMS_TOPIC is required")
	}
	if cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required")
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.RequiredSources) == 0 {
		return nil, errors.New("REQUIRED_SOURCES must name at least one source")
	}
	for _, src := range cfg.RequiredSources {
		if cfg.SourceWeights[src] <= 0 {
			return nil, fmt.Errorf("SOURCE_WEIGHTS has no positive weight for required source %s", src)
		}
	}

	return cfg, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
