package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
)

// Outcome classifies how a recorded result was treated.
type Outcome string

const (
	// OutcomeAccepted means the result was counted toward the claim.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeAlreadyComplete means the claim was finalized before the
	// result arrived. The result is stored but not counted.
	OutcomeAlreadyComplete Outcome = "already-complete"
	// OutcomeDuplicateSource means the source had already been counted.
	// The result is stored but not counted.
	OutcomeDuplicateSource Outcome = "duplicate-source"
)

// Receipt describes a recorded result. Decision is set only on the call that
// completed the claim.
type Receipt struct {
	ResultID string           `json:"result_id"`
	ClaimID  string           `json:"claim_id"`
	Source   domain.Source    `json:"source"`
	Outcome  Outcome          `json:"outcome"`
	Decision *domain.Decision `json:"decision,omitempty"`
}

// Collector records verifier results and detects completion.
type Collector struct {
	store    domain.ClaimStore
	engine   *StatusEngine
	required []domain.Source
	weights  domain.Weights
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewCollector creates a Collector that completes a claim once every source
// in required has been counted, scoring it with weights.
func NewCollector(store domain.ClaimStore, engine *StatusEngine, required []domain.Source, weights domain.Weights, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		store:    store,
		engine:   engine,
		required: required,
		weights:  weights,
		logger:   logger,
		metrics:  metrics,
	}
}

// RecordResult stores one verifier result. The first result per source is
// counted; completion is detected from durable rows under the claim lock,
// and exactly one call per claim sees a non-nil Decision.
func (c *Collector) RecordResult(ctx context.Context, claimID, source string, payload json.RawMessage) (Receipt, error) {
	src, err := c.parseSource(source)
	if err != nil {
		return Receipt{}, err
	}
	decoded, err := domain.DecodePayload(src, payload)
	if err != nil {
		return Receipt{}, err
	}

	r := domain.VerificationResult{
		ID:         uuid.NewString(),
		ClaimID:    claimID,
		Source:     src,
		RawPayload: normalizePayload(payload),
		Payload:    decoded,
		CreatedAt:  domain.Now(),
	}
	receipt := Receipt{ResultID: r.ID, ClaimID: claimID, Source: src}

	err = c.store.WithClaim(ctx, claimID, func(tx domain.ClaimTx) error {
		receipt.Outcome, receipt.Decision = "", nil

		stored, err := tx.Results(ctx)
		if err != nil {
			return err
		}
		counted := countedResults(stored)

		switch {
		case slices.Contains(domain.ReportedSources(counted), src):
			receipt.Outcome = OutcomeDuplicateSource
		case tx.Claim().Finalized():
			receipt.Outcome = OutcomeAlreadyComplete
		default:
			receipt.Outcome = OutcomeAccepted
			r.Counted = true
		}
		if err := tx.AppendResult(ctx, r); err != nil {
			return err
		}
		if !r.Counted {
			return nil
		}

		counted = append(counted, r)
		d, covered, err := c.finalize(ctx, tx, counted, r.CreatedAt)
		if err != nil {
			return err
		}
		if d == nil && covered {
			receipt.Outcome = OutcomeAlreadyComplete
		}
		receipt.Decision = d
		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("record %s result for %s: %w", src, claimID, err)
	}

	c.observe(r, receipt)
	return receipt, nil
}

// Complete finalizes claimID when every required source is already counted
// but the claim was never finalized, which happens when the required set
// shrinks after results arrived. It returns nil when there is nothing to do.
func (c *Collector) Complete(ctx context.Context, claimID string) (*domain.Decision, error) {
	var decision *domain.Decision
	err := c.store.WithClaim(ctx, claimID, func(tx domain.ClaimTx) error {
		decision = nil
		if tx.Claim().Finalized() {
			return nil
		}
		stored, err := tx.Results(ctx)
		if err != nil {
			return err
		}
		decision, _, err = c.finalize(ctx, tx, countedResults(stored), domain.Now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("complete %s: %w", claimID, err)
	}
	if decision != nil {
		c.observeDecision(*decision)
	}
	return decision, nil
}

// finalize sets finalized_at and applies the aggregated status once counted
// covers the required sources. covered reports whether coverage was reached;
// a nil Decision with covered set means another caller finalized first.
func (c *Collector) finalize(ctx context.Context, tx domain.ClaimTx, counted []domain.VerificationResult, at time.Time) (d *domain.Decision, covered bool, err error) {
	counted = slices.DeleteFunc(slices.Clone(counted), func(r domain.VerificationResult) bool {
		return !slices.Contains(c.required, r.Source)
	})
	if !domain.Covers(c.required, domain.ReportedSources(counted)) {
		return nil, false, nil
	}
	won, err := tx.Finalize(ctx, at)
	if err != nil || !won {
		return nil, true, err
	}
	decision, err := c.engine.apply(ctx, tx, c.weights.Aggregate(counted))
	if err != nil {
		return nil, true, err
	}
	return &decision, true, nil
}

// parseSource accepts only sources this service dispatches to.
func (c *Collector) parseSource(source string) (domain.Source, error) {
	src, err := domain.ParseSource(source)
	if err != nil {
		return "", err
	}
	if !slices.Contains(c.required, src) {
		return "", fmt.Errorf("%w: %s is not configured", domain.ErrUnknownSource, src)
	}
	return src, nil
}

func (c *Collector) observe(r domain.VerificationResult, receipt Receipt) {
	c.metrics.Results.WithLabelValues(string(r.Source), string(receipt.Outcome)).Inc()

	log := c.logger.With("claim_id", r.ClaimID, "source", r.Source, "outcome", receipt.Outcome)
	if r.Failed() {
		c.metrics.VerifierErrors.WithLabelValues(string(r.Source)).Inc()
		log.Warn("verifier reported failure", "reason", r.Payload.FailureReason())
	}
	switch receipt.Outcome {
	case OutcomeAccepted:
		log.Info("result recorded")
	default:
		log.Info("result stored uncounted")
	}

	if receipt.Decision != nil {
		c.observeDecision(*receipt.Decision)
	}
}

func (c *Collector) observeDecision(d domain.Decision) {
	c.metrics.Aggregations.Inc()
	c.metrics.ConfidenceScore.Observe(d.Assessment.Score)
	c.engine.observe(d)
}

func countedResults(results []domain.VerificationResult) []domain.VerificationResult {
	out := make([]domain.VerificationResult, 0, len(results))
	for _, r := range results {
		if r.Counted {
			out = append(out, r)
		}
	}
	return out
}

// normalizePayload stores an absent payload as an empty object.
func normalizePayload(payload json.RawMessage) json.RawMessage {
	if len(payload) == 0 || string(payload) == "null" {
		return json.RawMessage(`{}`)
	}
	return payload
}
