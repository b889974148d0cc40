// Command simulate stands in for the verifier fleet during local runs. It
// consumes every dispatch topic and answers each task on the results topic
// with a synthetic finding, and can seed the claims topic with sample
// submissions. Kafka settings come from the same environment variables as
// the service.
//
// Usage:
//
//	go run ./cmd/simulate -claims 20 -error-rate 0.1 -seed 7
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"

	kafkaadapter "github.com/couchcryptid/hazard-claim-verifier/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-claim-verifier/internal/config"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	claims := flag.Int("claims", 0, "number of sample claims to publish before answering tasks")
	errorRate := flag.Float64("error-rate", 0.05, "fraction of tasks answered with a verifier error")
	seed := flag.Uint64("seed", 1, "random seed for reproducible findings")
	flag.Parse()

	if *errorRate < 0 || *errorRate > 1 {
		flag.Usage()
		return errors.New("-error-rate must be between 0 and 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaDispatchPrefix, logger)
	defer func() { _ = writer.Close() }()

	rng := newLockedRand(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))

	if *claims > 0 {
		events, err := sampleClaims(rng, cfg.KafkaClaimsTopic, *claims)
		if err != nil {
			return err
		}
		if err := writer.Publish(ctx, events...); err != nil {
			return fmt.Errorf("publish sample claims: %w", err)
		}
		logger.Info("sample claims published", "count", len(events), "topic", cfg.KafkaClaimsTopic)
	}

	responder := &responder{
		publisher:    writer,
		resultsTopic: cfg.KafkaResultsTopic,
		errorRate:    *errorRate,
		rng:          rng,
		logger:       logger,
	}

	var wg sync.WaitGroup
	for _, src := range cfg.RequiredSources {
		topic := cfg.KafkaDispatchPrefix + string(src)
		reader := kafkaadapter.NewReader(cfg.KafkaBrokers, topic, "hazard-verifier-simulator", cfg.BatchFlushInterval, logger)
		p := pipeline.New(string(src)+"-simulator", reader, responder, logger, metrics, cfg.BatchSize)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = reader.Close() }()
			if err := p.Run(ctx); err != nil {
				logger.Error("simulator pipeline error", "topic", topic, "error", err)
			}
		}()
	}

	logger.Info("simulating verifiers", "sources", cfg.RequiredSources, "error_rate", *errorRate)
	wg.Wait()
	return nil
}
