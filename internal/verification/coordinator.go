package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
)

// Coordinator accepts claims and fans them out to the required verifiers.
type Coordinator struct {
	store    domain.ClaimStore
	sender   sender
	required []domain.Source
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewCoordinator creates a Coordinator that dispatches to every source in
// required, retrying each dispatch according to policy.
func NewCoordinator(store domain.ClaimStore, d Dispatcher, required []domain.Source, policy retry.Policy, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		store:    store,
		sender:   sender{dispatcher: d, policy: policy, logger: logger, metrics: metrics},
		required: required,
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit validates and persists a claim, then dispatches one task per
// required source. It returns the claim id once the claim is durable; a
// dispatch that fails after retries is left to the Reconciler and does not
// fail the call. Resubmitting an existing id is a no-op.
func (c *Coordinator) Submit(ctx context.Context, sub domain.Submission) (string, error) {
	if err := sub.Validate(); err != nil {
		return "", err
	}

	id := sub.ClaimID
	if id == "" {
		id = uuid.NewString()
	}
	claim := domain.NewClaim(id, sub, domain.Now())

	created, err := c.store.CreateClaim(ctx, claim)
	if err != nil {
		return "", fmt.Errorf("persist claim: %w", err)
	}
	if !created {
		c.metrics.ClaimsSubmitted.WithLabelValues("duplicate").Inc()
		c.logger.Info("claim already submitted", "claim_id", id)
		return id, nil
	}
	c.metrics.ClaimsSubmitted.WithLabelValues("created").Inc()
	c.logger.Info("claim submitted", "claim_id", id, "hazard_type", claim.HazardType)

	sent, dispatchErr := c.sender.send(ctx, claim, c.required)
	if _, err := c.store.RecordDispatch(ctx, id, claim.LastDispatchAt, domain.Now()); err != nil {
		c.logger.Warn("record dispatch failed", "claim_id", id, "error", err)
	}
	if dispatchErr != nil {
		c.logger.Warn("partial dispatch failure, leaving to reconciliation",
			"claim_id", id,
			"dispatched", len(sent),
			"required", len(c.required),
			"error", dispatchErr,
		)
	}
	return id, nil
}
