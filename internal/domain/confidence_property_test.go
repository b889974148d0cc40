package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	matchStatuses = []string{"confirmed", "unconfirmed", "inconclusive", ""}
	urgencies     = []string{"Low", "Medium", "High", "Critical", "rumor", ""}
	sentiments    = []string{"Calm", "Informative", "Worried", "Panicked", "confusion", ""}
)

// propResults builds one result per source from generator indexes.
func propResults(weather, urgency, sentiment int, failWeather, failNLP, withPeer bool) []VerificationResult {
	mk := func(src Source, payload map[string]any, offset time.Duration) VerificationResult {
		raw, _ := json.Marshal(payload)
		p, _ := DecodePayload(src, raw)
		return VerificationResult{ClaimID: testClaimID, Source: src, RawPayload: raw, Payload: p, Counted: true, CreatedAt: baseTime.Add(offset)}
	}

	wp := map[string]any{"match_status": matchStatuses[weather%len(matchStatuses)]}
	if failWeather {
		wp["error"] = "upstream unavailable"
	}
	np := map[string]any{
		"urgency":   urgencies[urgency%len(urgencies)],
		"sentiment": sentiments[sentiment%len(sentiments)],
	}
	if failNLP {
		np["error"] = true
	}
	out := []VerificationResult{
		mk(SourceWeather, wp, 0),
		mk(SourceNLP, np, time.Second),
	}
	if withPeer {
		out = append(out, mk(SourcePeer, map[string]any{"corroborations": 1}, 2*time.Second))
	}
	return out
}

func TestAggregateScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("score stays within [0,1] with a valid level", prop.ForAll(
		func(weather, urgency, sentiment int, failWeather, failNLP, withPeer bool, ww, nw float64) bool {
			w := Weights{SourceWeather: ww, SourceNLP: nw, SourcePeer: 0.2}
			a := w.Aggregate(propResults(weather, urgency, sentiment, failWeather, failNLP, withPeer))
			if math.IsNaN(a.Score) || a.Score < 0 || a.Score > 1 {
				return false
			}
			return a.Level == LevelFor(a.Score)
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.Float64Range(0, 5),
		gen.Float64Range(0, 5),
	))

	properties.TestingRun(t)
}

func TestAggregateErrorExclusion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dropping a failed result leaves the score unchanged", prop.ForAll(
		func(weather, urgency, sentiment int, withPeer bool) bool {
			with := propResults(weather, urgency, sentiment, true, false, withPeer)
			without := with[1:]

			w := DefaultWeights()
			a := w.Aggregate(with)
			b := w.Aggregate(without)
			return a.Score == b.Score && a.Level == b.Level
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
