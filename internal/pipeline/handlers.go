package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/verification"
)

// Submitter accepts claims. *verification.Coordinator implements it.
type Submitter interface {
	Submit(ctx context.Context, sub domain.Submission) (string, error)
}

// Recorder records verifier results. *verification.Collector implements it.
type Recorder interface {
	RecordResult(ctx context.Context, claimID, source string, payload json.RawMessage) (verification.Receipt, error)
}

// ClaimHandler submits claims read from the claims topic.
type ClaimHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(s Submitter, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{submitter: s, logger: logger}
}

// Handle submits the claim in raw. A message without claim_id uses its key
// as the id so that a redelivered message does not create a second claim.
func (h *ClaimHandler) Handle(ctx context.Context, raw domain.RawEvent) error {
	sub, err := domain.ParseClaimMessage(raw)
	if err != nil {
		return err
	}
	if sub.ClaimID == "" && len(raw.Key) > 0 {
		sub.ClaimID = string(raw.Key)
	}
	id, err := h.submitter.Submit(ctx, sub)
	if err != nil {
		return err
	}
	h.logger.Debug("claim message handled", "claim_id", id, "offset", raw.Offset)
	return nil
}

// ResultHandler records verifier results read from the results topic.
type ResultHandler struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewResultHandler creates a ResultHandler.
func NewResultHandler(r Recorder, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{recorder: r, logger: logger}
}

// Handle records the result in raw.
func (h *ResultHandler) Handle(ctx context.Context, raw domain.RawEvent) error {
	msg, err := domain.ParseResultMessage(raw)
	if err != nil {
		return err
	}
	receipt, err := h.recorder.RecordResult(ctx, msg.ClaimID, msg.Source, msg.Payload)
	if err != nil {
		return err
	}
	h.logger.Debug("result message handled",
		"claim_id", receipt.ClaimID,
		"source", receipt.Source,
		"outcome", receipt.Outcome,
		"offset", raw.Offset,
	)
	return nil
}
