package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is one verifier's structured finding. The concrete type is fixed by
// the reporting source.
type Payload interface {
	// Source returns the source whose schema this payload follows.
	Source() Source
	// FailureReason is non-empty when the verifier reported that it failed.
	FailureReason() string
}

// WeatherPayload is the weather correlation verdict.
type WeatherPayload struct {
	MatchStatus  string         `json:"match_status"`
	Reason       string         `json:"reason,omitempty"`
	Observations map[string]any `json:"weather_api_data,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func (WeatherPayload) Source() Source          { return SourceWeather }
func (p WeatherPayload) FailureReason() string { return p.Error }

// NLPPayload is the text and sentiment analysis of the claim description.
type NLPPayload struct {
	Urgency    string `json:"urgency,omitempty"`
	Sentiment  string `json:"sentiment,omitempty"`
	HazardType string `json:"hazard_type,omitempty"`
	Summary    string `json:"summary,omitempty"`
	// IsHazard is nil when the analyzer did not classify relevance.
	IsHazard *bool  `json:"is_hazard,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (NLPPayload) Source() Source          { return SourceNLP }
func (p NLPPayload) FailureReason() string { return p.Error }

// PeerPayload is the corroboration count from nearby reports.
type PeerPayload struct {
	Corroborations int    `json:"corroborations,omitempty"`
	Contradictions int    `json:"contradictions,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (PeerPayload) Source() Source          { return SourcePeer }
func (p PeerPayload) FailureReason() string { return p.Error }

// unspecifiedFailure stands in when a payload has an "error" key whose value
// is empty or not a string.
const unspecifiedFailure = "verifier reported an error"

// DecodePayload decodes raw into the variant for source. The presence of an
// "error" key always yields a failed payload, whatever its value.
func DecodePayload(source Source, raw json.RawMessage) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s payload is not a JSON object: %v", ErrInvalidPayload, source, err)
	}
	failure := failureFrom(fields)
	if failure != "" {
		// The error value may not match the variant's Error field type.
		delete(fields, "error")
		stripped, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, source, err)
		}
		raw = stripped
	}

	switch source {
	case SourceWeather:
		var p WeatherPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: weather: %v", ErrInvalidPayload, err)
		}
		p.Error = failure
		return p, nil
	case SourceNLP:
		var p NLPPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: nlp: %v", ErrInvalidPayload, err)
		}
		p.Error = failure
		return p, nil
	case SourcePeer:
		var p PeerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: peer: %v", ErrInvalidPayload, err)
		}
		p.Error = failure
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

func failureFrom(fields map[string]json.RawMessage) string {
	v, ok := fields["error"]
	if !ok {
		return ""
	}
	var msg string
	if err := json.Unmarshal(v, &msg); err != nil || strings.TrimSpace(msg) == "" {
		return unspecifiedFailure
	}
	return msg
}
