package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/hazard-claim-verifier/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-claim-verifier/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-claim-verifier/internal/config"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/pipeline"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
	"github.com/couchcryptid/hazard-claim-verifier/internal/store"
	"github.com/couchcryptid/hazard-claim-verifier/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	claimStore, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open claim store", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	logger.Info("claim store ready", "driver", cfg.DatabaseDriver, "required_sources", cfg.RequiredSources)

	writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaDispatchPrefix, logger)
	claimsReader := kafkaadapter.NewReader(cfg.KafkaBrokers, cfg.KafkaClaimsTopic, cfg.KafkaGroupID+"-claims", cfg.BatchFlushInterval, logger)
	resultsReader := kafkaadapter.NewReader(cfg.KafkaBrokers, cfg.KafkaResultsTopic, cfg.KafkaGroupID+"-results", cfg.BatchFlushInterval, logger)

	policy := retry.NewPolicy(cfg.DispatchMaxAttempts)
	coordinator := verification.NewCoordinator(claimStore, writer, cfg.RequiredSources, policy, logger, metrics)
	engine := verification.NewStatusEngine(claimStore, logger, metrics)
	collector := verification.NewCollector(claimStore, engine, cfg.RequiredSources, cfg.SourceWeights, logger, metrics)
	reconciler := verification.NewReconciler(claimStore, writer, collector, cfg.RequiredSources, policy, verification.ReconcileSettings{
		Interval:    cfg.ReconcileInterval,
		GracePeriod: cfg.ReconcileGracePeriod,
		MaxAttempts: cfg.ReconcileMaxAttempts,
		Rate:        cfg.ReconcileRate,
	}, clockwork.NewRealClock(), logger, metrics)

	claimsPipeline := pipeline.New("claims", claimsReader, pipeline.NewClaimHandler(coordinator, logger), logger, metrics, cfg.BatchSize)
	resultsPipeline := pipeline.New("results", resultsReader, pipeline.NewResultHandler(collector, logger), logger, metrics, cfg.BatchSize)

	ready := httpadapter.Readiness{
		{Name: "store", Check: httpadapter.CheckFunc(claimStore.Ping)},
		{Name: "claims pipeline", Check: claimsPipeline},
		{Name: "results pipeline", Check: resultsPipeline},
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, claimStore, collector, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start pipelines and the reconciliation sweep.
	var wg sync.WaitGroup
	for name, run := range map[string]func(context.Context) error{
		"claims pipeline":  claimsPipeline.Run,
		"results pipeline": resultsPipeline.Run,
		"reconciler":       reconciler.Run,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				logger.Error(name+" error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	if err := claimsReader.Close(); err != nil {
		logger.Error("kafka claims reader close error", "error", err)
	}
	if err := resultsReader.Close(); err != nil {
		logger.Error("kafka results reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := claimStore.Close(); err != nil {
		logger.Error("claim store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
