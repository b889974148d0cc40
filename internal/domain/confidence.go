package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Level is the categorical summary of a confidence score.
type Level string

const (
	LevelHigh    Level = "High"
	LevelMedium  Level = "Medium"
	LevelLow     Level = "Low"
	LevelVeryLow Level = "Very Low"
)

// LevelFor maps a score to its level.
func LevelFor(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	case score >= 0.4:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// CalculationMethod names the aggregation used in every Assessment.
const CalculationMethod = "weighted_average"

// Weights assigns each source its fixed aggregation weight. Weights need not
// sum to one; the score is normalized by the weights actually used.
type Weights map[Source]float64

// DefaultWeights returns weather 0.4, nlp 0.4, peer 0.2.
func DefaultWeights() Weights {
	return Weights{
		SourceWeather: 0.4,
		SourceNLP:     0.4,
		SourcePeer:    0.2,
	}
}

// ParseWeights parses "weather=0.4,nlp=0.4,peer=0.2". Sources left out keep
// their default weight.
func ParseWeights(s string) (Weights, error) {
	w := DefaultWeights()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("weight %q: want source=value", part)
		}
		src, err := ParseSource(name)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("weight %q: invalid value", part)
		}
		w[src] = f
	}
	return w, nil
}

// SourceScore is one source's contribution to an Assessment.
type SourceScore struct {
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Reason   string  `json:"reason"`
	Excluded bool    `json:"excluded,omitempty"`
}

// Assessment is the outcome of aggregating a set of results.
type Assessment struct {
	Score              float64                `json:"confidence_score"`
	Level              Level                  `json:"confidence_level"`
	Details            map[Source]SourceScore `json:"details"`
	TotalVerifications int                    `json:"total_verifications"`
	CalculationMethod  string                 `json:"calculation_method"`
}

// Aggregate scores results with w. It has no side effects and accepts a
// partial result set. Only the earliest result per source is used. Failed
// results are reported in Details but excluded from both the weighted sum and
// the total weight.
func (w Weights) Aggregate(results []VerificationResult) Assessment {
	a := Assessment{
		Level:              LevelVeryLow,
		Details:            make(map[Source]SourceScore),
		TotalVerifications: len(results),
		CalculationMethod:  CalculationMethod,
	}

	ordered := slices.Clone(results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var weighted, total float64
	for _, r := range ordered {
		if _, seen := a.Details[r.Source]; seen {
			continue
		}
		weight := w[r.Source]
		if r.Failed() {
			a.Details[r.Source] = SourceScore{
				Weight:   weight,
				Reason:   fmt.Sprintf("%s verification failed: %s", r.Source, r.Payload.FailureReason()),
				Excluded: true,
			}
			continue
		}
		score, reason := rubric(r.Payload)
		a.Details[r.Source] = SourceScore{Score: score, Weight: weight, Reason: reason}
		weighted += score * weight
		total += weight
	}

	if total == 0 {
		return a
	}
	a.Score = round2(weighted / total)
	a.Level = LevelFor(a.Score)
	return a
}

// round2 rounds to two decimals so that level thresholds are not missed by
// floating-point residue such as 0.7999999.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	urgencyScores = map[string]float64{
		"low":      0.3,
		"medium":   0.5,
		"high":     0.7,
		"critical": 0.9,
	}
	sentimentScores = map[string]float64{
		"calm":        0.3,
		"informative": 0.5,
		"worried":     0.7,
		"panicked":    0.9,
	}
)

// rubric scores a non-failed payload in [0,1].
func rubric(p Payload) (float64, string) {
	switch p := p.(type) {
	case WeatherPayload:
		return weatherScore(p)
	case NLPPayload:
		return nlpScore(p)
	case PeerPayload:
		return 0.5, "Peer corroboration rubric not yet defined"
	default:
		return 0.5, "No rubric for payload"
	}
}

func weatherScore(p WeatherPayload) (float64, string) {
	switch strings.ToLower(strings.TrimSpace(p.MatchStatus)) {
	case "confirmed":
		return 0.8, "Weather conditions support the report"
	case "unconfirmed":
		return 0.2, "Weather conditions don't support the report"
	default:
		return 0.5, "Weather analysis inconclusive"
	}
}

func nlpScore(p NLPPayload) (float64, string) {
	if p.IsHazard != nil && !*p.IsHazard {
		return 0.2, "Text analysis found no hazard in the description"
	}
	urgency := ordinal(p.Urgency, "medium")
	sentiment := ordinal(p.Sentiment, "informative")
	u, ok := urgencyScores[urgency]
	if !ok {
		u = 0.5
	}
	s, ok := sentimentScores[sentiment]
	if !ok {
		s = 0.5
	}
	return (u + s) / 2, fmt.Sprintf("Urgency: %s, Sentiment: %s", p.Urgency, p.Sentiment)
}

func ordinal(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return fallback
	}
	return v
}
