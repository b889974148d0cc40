package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

// publisher is the subset of kafka.Writer the simulator needs.
type publisher interface {
	Publish(ctx context.Context, events ...domain.OutputEvent) error
}

// lockedRand serializes access to a *rand.Rand shared by the per-source
// pipelines.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(rng *rand.Rand) *lockedRand {
	return &lockedRand{rng: rng}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// responder answers dispatch tasks with synthetic findings. It implements
// pipeline.Handler.
type responder struct {
	publisher    publisher
	resultsTopic string
	errorRate    float64
	rng          *lockedRand
	logger       *slog.Logger
}

func (r *responder) Handle(ctx context.Context, raw domain.RawEvent) error {
	var task domain.DispatchTask
	if err := json.Unmarshal(raw.Value, &task); err != nil {
		return fmt.Errorf("%w: dispatch task: %v", domain.ErrInvalidMessage, err)
	}
	if _, err := domain.ParseSource(string(task.Source)); err != nil {
		return err
	}

	payload, err := json.Marshal(r.finding(task))
	if err != nil {
		return fmt.Errorf("marshal finding: %w", err)
	}
	value, err := json.Marshal(domain.ResultMessage{
		ClaimID: task.ClaimID,
		Source:  string(task.Source),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("marshal result message: %w", err)
	}

	r.logger.Debug("answering task", "claim_id", task.ClaimID, "source", task.Source)
	return r.publisher.Publish(ctx, domain.OutputEvent{
		Topic:   r.resultsTopic,
		Key:     []byte(task.ClaimID),
		Value:   value,
		Headers: map[string]string{"source": string(task.Source)},
	})
}

// finding builds a payload in the schema of the task's source.
func (r *responder) finding(task domain.DispatchTask) any {
	if r.rng.Float64() < r.errorRate {
		return map[string]string{"error": fmt.Sprintf("simulated %s verifier timeout", task.Source)}
	}

	switch task.Source {
	case domain.SourceWeather:
		if r.rng.Float64() < 0.7 {
			return domain.WeatherPayload{
				MatchStatus:  "confirmed",
				Reason:       fmt.Sprintf("Weather data consistent with %s", task.HazardType),
				Observations: map[string]any{"precipitation_mm": 20 + r.rng.IntN(60)},
			}
		}
		return domain.WeatherPayload{
			MatchStatus:  "unconfirmed",
			Reason:       fmt.Sprintf("No conditions matching %s at the reported location", task.HazardType),
			Observations: map[string]any{"precipitation_mm": r.rng.IntN(5)},
		}
	case domain.SourceNLP:
		urgencies := []string{"low", "medium", "high", "critical"}
		sentiments := []string{"calm", "informative", "worried", "panicked"}
		isHazard := r.rng.Float64() < 0.9
		return domain.NLPPayload{
			Urgency:    urgencies[r.rng.IntN(len(urgencies))],
			Sentiment:  sentiments[r.rng.IntN(len(sentiments))],
			HazardType: task.HazardType,
			Summary:    "Simulated analysis of the reporter's description",
			IsHazard:   &isHazard,
		}
	default:
		return domain.PeerPayload{
			Corroborations: r.rng.IntN(5),
			Contradictions: r.rng.IntN(2),
		}
	}
}

var sampleHazards = []struct {
	hazardType  string
	description string
}{
	{"flood", "Water is rising over the road near the bridge, cars are stuck"},
	{"wildfire", "Thick smoke and flames visible on the ridge behind the houses"},
	{"landslide", "Part of the hillside collapsed onto the highway"},
	{"storm", "Strong winds knocked down power lines on the main street"},
}

// sampleClaims builds n claim messages for topic, keyed by claim id.
func sampleClaims(rng *lockedRand, topic string, n int) ([]domain.OutputEvent, error) {
	events := make([]domain.OutputEvent, 0, n)
	for range n {
		h := sampleHazards[rng.IntN(len(sampleHazards))]
		lat := -60 + rng.Float64()*120
		lon := -180 + rng.Float64()*360
		id := uuid.NewString()
		value, err := json.Marshal(domain.ClaimMessage{
			ClaimID:     id,
			ReporterID:  fmt.Sprintf("simulated-reporter-%d", rng.IntN(100)),
			HazardType:  h.hazardType,
			Description: h.description,
			Latitude:    &lat,
			Longitude:   &lon,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal sample claim: %w", err)
		}
		events = append(events, domain.OutputEvent{Topic: topic, Key: []byte(id), Value: value})
	}
	return events, nil
}
