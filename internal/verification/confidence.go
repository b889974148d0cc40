package verification

import (
	"context"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

// ConfidenceReport is the on-demand view of a claim's confidence.
type ConfidenceReport struct {
	ClaimID            string                               `json:"claim_id"`
	Status             domain.Status                        `json:"status"`
	Finalized          bool                                 `json:"finalized"`
	Score              float64                              `json:"confidence_score"`
	Level              domain.Level                         `json:"confidence_level"`
	Details            map[domain.Source]domain.SourceScore `json:"details"`
	TotalVerifications int                                  `json:"total_verifications"`
	CalculationMethod  string                               `json:"calculation_method"`
	Missing            []domain.Source                      `json:"missing_sources,omitempty"`
}

// GetConfidence aggregates the claim's counted results as they stand. It
// never writes; a claim that has not completed reports a partial score.
func (c *Collector) GetConfidence(ctx context.Context, claimID string) (ConfidenceReport, error) {
	claim, err := c.store.GetClaim(ctx, claimID)
	if err != nil {
		return ConfidenceReport{}, err
	}
	results, err := c.store.ListResults(ctx, claimID)
	if err != nil {
		return ConfidenceReport{}, err
	}
	counted := countedResults(results)
	a := c.weights.Aggregate(counted)

	return ConfidenceReport{
		ClaimID:            claim.ID,
		Status:             claim.Status,
		Finalized:          claim.Finalized(),
		Score:              a.Score,
		Level:              a.Level,
		Details:            a.Details,
		TotalVerifications: a.TotalVerifications,
		CalculationMethod:  a.CalculationMethod,
		Missing:            domain.MissingSources(c.required, domain.ReportedSources(counted)),
	}, nil
}
