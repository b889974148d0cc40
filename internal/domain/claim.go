package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the trust status of a claim.
type Status string

const (
	StatusUnderVerification Status = "under_verification"
	StatusVerified          Status = "verified"
	StatusRejected          Status = "rejected"
)

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// Location is a WGS-84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Submission is the user-supplied part of a claim.
type Submission struct {
	// ClaimID is optional. When set, resubmitting the same id is a no-op.
	ClaimID     string   `json:"claim_id,omitempty"`
	ReporterID  string   `json:"reporter_id,omitempty"`
	HazardType  string   `json:"hazard_type"`
	Description string   `json:"description,omitempty"`
	Location    Location `json:"location"`
}

// Validate checks the fields a claim cannot be created without.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.HazardType) == "" {
		return fmt.Errorf("%w: hazard_type is required", ErrInvalidClaim)
	}
	if s.Location.Latitude < -90 || s.Location.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidClaim, s.Location.Latitude)
	}
	if s.Location.Longitude < -180 || s.Location.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidClaim, s.Location.Longitude)
	}
	return nil
}

// Claim is a hazard report under verification.
type Claim struct {
	ID              string     `json:"id"`
	ReporterID      string     `json:"reporter_id,omitempty"`
	HazardType      string     `json:"hazard_type"`
	Description     string     `json:"description,omitempty"`
	Location        Location   `json:"location"`
	Status          Status     `json:"status"`
	ConfidenceScore float64    `json:"confidence_score"`
	CreatedAt       time.Time  `json:"created_at"`
	FinalizedAt     *time.Time `json:"finalized_at,omitempty"`

	// Dispatch bookkeeping for the reconciliation sweep.
	DispatchAttempts int       `json:"dispatch_attempts"`
	LastDispatchAt   time.Time `json:"last_dispatch_at"`
}

// NewClaim builds the initial record for a submission.
func NewClaim(id string, sub Submission, now time.Time) Claim {
	return Claim{
		ID:              id,
		ReporterID:      sub.ReporterID,
		HazardType:      strings.TrimSpace(sub.HazardType),
		Description:     sub.Description,
		Location:        sub.Location,
		Status:          StatusUnderVerification,
		ConfidenceScore: 0,
		CreatedAt:       now,
		LastDispatchAt:  now,
	}
}

// Finalized reports whether completion has already fired for the claim.
func (c Claim) Finalized() bool {
	return c.FinalizedAt != nil
}
