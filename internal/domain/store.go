package domain

import (
	"context"
	"time"
)

// ClaimStore is the durable state every service instance shares. Completion
// detection reads it rather than process memory so that instances agree.
type ClaimStore interface {
	// CreateClaim inserts claim. It reports false, without error, when a
	// claim with the same id already exists.
	CreateClaim(ctx context.Context, claim Claim) (bool, error)

	// GetClaim returns ErrClaimNotFound for an unknown id.
	GetClaim(ctx context.Context, id string) (Claim, error)

	// ListResults returns every stored result for a claim, counted or not,
	// oldest first.
	ListResults(ctx context.Context, claimID string) ([]VerificationResult, error)

	// RecordDispatch bumps the dispatch attempt counter and sets
	// last_dispatch_at to at, but only while last_dispatch_at still equals
	// prev and the claim is unfinalized. It reports whether it won.
	RecordDispatch(ctx context.Context, claimID string, prev, at time.Time) (bool, error)

	// ListStale returns unfinalized claims last dispatched before cutoff with
	// fewer than maxAttempts dispatch attempts, oldest first.
	ListStale(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]Claim, error)

	// WithClaim runs fn in one transaction holding an exclusive lock on the
	// claim row. ErrClaimNotFound is returned before fn runs for an unknown
	// id. The transaction commits only if fn returns nil.
	WithClaim(ctx context.Context, claimID string, fn func(tx ClaimTx) error) error

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// ClaimTx is the unit of work for one locked claim.
type ClaimTx interface {
	// Claim returns the claim as read under the lock.
	Claim() Claim

	// Results returns every stored result for the claim, oldest first.
	Results(ctx context.Context) ([]VerificationResult, error)

	// AppendResult inserts r. Results are never updated or deleted.
	AppendResult(ctx context.Context, r VerificationResult) error

	// Finalize sets finalized_at if it is still unset and reports whether
	// this call set it.
	Finalize(ctx context.Context, at time.Time) (bool, error)

	// UpdateConfidence persists score and status together.
	UpdateConfidence(ctx context.Context, score float64, status Status) error
}
