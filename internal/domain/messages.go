package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClaimMessage is the submission schema on the claims topic. Coordinates are
// flat, matching the original report form.
type ClaimMessage struct {
	ClaimID     string   `json:"claim_id,omitempty"`
	ReporterID  string   `json:"reporter_id,omitempty"`
	HazardType  string   `json:"hazard_type"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ResultMessage is the schema every verifier adapter publishes on the results
// topic.
type ResultMessage struct {
	ClaimID string          `json:"claim_id"`
	Source  string          `json:"source"`
	Payload json.RawMessage `json:"payload"`
}

// ParseClaimMessage decodes a claims-topic message into a validated
// Submission.
func ParseClaimMessage(raw RawEvent) (Submission, error) {
	var msg ClaimMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return Submission{}, fmt.Errorf("%w: parse claim message: %v", ErrInvalidMessage, err)
	}
	if msg.Latitude == nil || msg.Longitude == nil {
		return Submission{}, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidClaim)
	}
	sub := Submission{
		ClaimID:     strings.TrimSpace(msg.ClaimID),
		ReporterID:  msg.ReporterID,
		HazardType:  msg.HazardType,
		Description: msg.Description,
		Location:    Location{Latitude: *msg.Latitude, Longitude: *msg.Longitude},
	}
	if err := sub.Validate(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// ParseResultMessage decodes a results-topic message. The payload is kept raw;
// the collector validates it against the source schema.
func ParseResultMessage(raw RawEvent) (ResultMessage, error) {
	var msg ResultMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return ResultMessage{}, fmt.Errorf("%w: parse result message: %v", ErrInvalidMessage, err)
	}
	msg.ClaimID = strings.TrimSpace(msg.ClaimID)
	if msg.ClaimID == "" {
		return ResultMessage{}, fmt.Errorf("%w: claim_id is required", ErrInvalidMessage)
	}
	return msg, nil
}

// SerializeDispatchTask marshals task for the topic named prefix+source.
func SerializeDispatchTask(prefix string, task DispatchTask) (OutputEvent, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize dispatch task: %w", err)
	}
	return OutputEvent{
		Topic: prefix + string(task.Source),
		Key:   []byte(task.ClaimID),
		Value: data,
		Headers: map[string]string{
			"claim_id":      task.ClaimID,
			"source":        string(task.Source),
			"dispatched_at": Now().Format(time.RFC3339),
		},
	}, nil
}
