package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

// claimTx implements domain.ClaimTx on an open transaction.
type claimTx struct {
	store *SQLStore
	tx    *sql.Tx
	claim domain.Claim
}

func (t *claimTx) Claim() domain.Claim {
	return t.claim
}

func (t *claimTx) Results(ctx context.Context) ([]domain.VerificationResult, error) {
	return queryResults(ctx, t.tx, t.store.rebind(`SELECT `+resultColumns+` FROM verification_results WHERE claim_id = ? ORDER BY created_at, id`), t.claim.ID)
}

func (t *claimTx) AppendResult(ctx context.Context, r domain.VerificationResult) error {
	counted := 0
	if r.Counted {
		counted = 1
	}
	query := t.store.rebind(`INSERT INTO verification_results (` + resultColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := t.tx.ExecContext(ctx, query,
		r.ID, t.claim.ID, string(r.Source), string(r.RawPayload), counted, toNanos(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append %s result for %s: %w", r.Source, t.claim.ID, err)
	}
	return nil
}

func (t *claimTx) Finalize(ctx context.Context, at time.Time) (bool, error) {
	query := t.store.rebind(`UPDATE claims SET finalized_at = ? WHERE id = ? AND finalized_at IS NULL`)
	res, err := t.tx.ExecContext(ctx, query, toNanos(at), t.claim.ID)
	if err != nil {
		return false, fmt.Errorf("finalize claim %s: %w", t.claim.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalize claim %s: %w", t.claim.ID, err)
	}
	if n == 1 {
		at = at.UTC()
		t.claim.FinalizedAt = &at
	}
	return n == 1, nil
}

// UpdateConfidence refuses to touch a claim whose status is already final.
func (t *claimTx) UpdateConfidence(ctx context.Context, score float64, status domain.Status) error {
	query := t.store.rebind(`UPDATE claims SET confidence_score = ?, status = ? WHERE id = ? AND status = ?`)
	res, err := t.tx.ExecContext(ctx, query, score, string(status), t.claim.ID, string(domain.StatusUnderVerification))
	if err != nil {
		return fmt.Errorf("update confidence %s: %w", t.claim.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update confidence %s: %w", t.claim.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s is %s", domain.ErrStatusFinal, t.claim.ID, t.claim.Status)
	}
	t.claim.ConfidenceScore = score
	t.claim.Status = status
	return nil
}
