package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Handler applies one message. Handlers must be idempotent: a message is
// redelivered after a crash between handling and commit.
type Handler interface {
	Handle(ctx context.Context, raw domain.RawEvent) error
}

// Pipeline runs the consume-handle-commit loop for one input topic.
type Pipeline struct {
	name      string
	extractor BatchExtractor
	handler   Handler
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline. name labels its logs and metrics.
func New(name string, e BatchExtractor, h Handler, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		name:      name,
		extractor: e,
		handler:   h,
		logger:    logger.With("pipeline", name),
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has completed a fetch from
// its source, or an error describing why it is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New(p.name + " pipeline has not reached its source yet")
	}
	return nil
}

// Run executes the loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	running := p.metrics.PipelineRunning.WithLabelValues(p.name)
	running.Set(1)
	defer running.Set(0)

	backoff := retry.DefaultInitial
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch extracts and handles one batch. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}
	p.ready.Store(true)
	*backoff = retry.DefaultInitial

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.WithLabelValues(p.name).Add(float64(len(batch)))
	p.metrics.BatchSize.WithLabelValues(p.name).Observe(float64(len(batch)))

	for _, raw := range batch {
		if !p.handle(ctx, raw, backoff) {
			return false
		}
	}

	p.metrics.BatchProcessingDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
	return true
}

// handle applies raw until it succeeds or fails permanently, then commits.
// Transient failures retry the same message so that offsets never skip
// work. Returns false if the pipeline should stop.
func (p *Pipeline) handle(ctx context.Context, raw domain.RawEvent, backoff *time.Duration) bool {
	for {
		err := p.handler.Handle(ctx, raw)
		switch {
		case err == nil:
			p.metrics.MessagesHandled.WithLabelValues(p.name).Inc()
			*backoff = retry.DefaultInitial
			p.commitOffset(ctx, raw)
			return true
		case domain.IsPermanent(err):
			p.logger.Warn("message rejected, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.MessagesFailed.WithLabelValues(p.name, "permanent").Inc()
			p.commitOffset(ctx, raw)
			return true
		}

		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("handle failed, retrying",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
			"backoff", *backoff,
		)
		p.metrics.MessagesFailed.WithLabelValues(p.name, "transient").Inc()
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sharedretry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = sharedretry.NextBackoff(*backoff, retry.DefaultMax)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
