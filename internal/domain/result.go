package domain

import (
	"encoding/json"
	"time"
)

// VerificationResult is one verifier's finding for one claim. Results are
// append-only; a result that arrives after its source was already counted,
// or after the claim was finalized, is kept for audit with Counted=false.
type VerificationResult struct {
	ID         string          `json:"id"`
	ClaimID    string          `json:"claim_id"`
	Source     Source          `json:"source"`
	RawPayload json.RawMessage `json:"payload"`
	Payload    Payload         `json:"-"`
	Counted    bool            `json:"counted"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Failed reports whether the verifier flagged its own failure.
func (r VerificationResult) Failed() bool {
	return r.Payload != nil && r.Payload.FailureReason() != ""
}

// ReportedSources returns the distinct sources among results, in first-seen
// order.
func ReportedSources(results []VerificationResult) []Source {
	seen := make(map[Source]bool, len(results))
	out := make([]Source, 0, len(results))
	for _, r := range results {
		if seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		out = append(out, r.Source)
	}
	return out
}
