package verification

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
)

// StatusEngine persists confidence outcomes. A verified or rejected claim
// never changes again.
type StatusEngine struct {
	store   domain.ClaimStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStatusEngine creates a StatusEngine over store.
func NewStatusEngine(store domain.ClaimStore, logger *slog.Logger, metrics *observability.Metrics) *StatusEngine {
	return &StatusEngine{store: store, logger: logger, metrics: metrics}
}

// ApplyConfidence stores score and the status level implies for claimID and
// returns the claim's resulting status.
func (e *StatusEngine) ApplyConfidence(ctx context.Context, claimID string, score float64, level domain.Level) (domain.Status, error) {
	var d domain.Decision
	err := e.store.WithClaim(ctx, claimID, func(tx domain.ClaimTx) error {
		var err error
		d, err = e.apply(ctx, tx, domain.Assessment{Score: score, Level: level})
		return err
	})
	if err != nil {
		return "", err
	}
	e.observe(d)
	return d.To, nil
}

// apply runs inside the caller's claim transaction.
func (e *StatusEngine) apply(ctx context.Context, tx domain.ClaimTx, a domain.Assessment) (domain.Decision, error) {
	claim := tx.Claim()
	d := domain.Decision{
		ClaimID:    claim.ID,
		Assessment: a,
		From:       claim.Status,
		To:         domain.NextStatus(claim.Status, a.Level),
	}
	if claim.Status.Terminal() {
		return d, nil
	}
	if err := tx.UpdateConfidence(ctx, a.Score, d.To); err != nil {
		return domain.Decision{}, err
	}
	return d, nil
}

// observe records a committed decision.
func (e *StatusEngine) observe(d domain.Decision) {
	if !d.Changed() {
		e.logger.Info("confidence applied",
			"claim_id", d.ClaimID,
			"status", d.To,
			"confidence_score", d.Assessment.Score,
			"confidence_level", d.Assessment.Level,
		)
		return
	}
	e.metrics.Transitions.WithLabelValues(string(d.To)).Inc()
	e.logger.Info("claim status changed",
		"claim_id", d.ClaimID,
		"from", d.From,
		"to", d.To,
		"confidence_score", d.Assessment.Score,
		"confidence_level", d.Assessment.Level,
	)
}
