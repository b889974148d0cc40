package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("claim-1"),
		Value:     []byte(`{"claim_id":"claim-1","source":"weather","payload":{}}`),
		Topic:     "hazard-results",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("weather")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("claim-1"), raw.Key)
	assert.JSONEq(t, `{"claim_id":"claim-1","source":"weather","payload":{}}`, string(raw.Value))
	assert.Equal(t, "hazard-results", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "weather", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage_DispatchTask(t *testing.T) {
	now := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	lat, lon := 29.76, -95.37
	event, err := domain.SerializeDispatchTask("verify-", domain.DispatchTask{
		ClaimID:    "claim-1",
		Source:     domain.SourceWeather,
		HazardType: "flood",
		Latitude:   &lat,
		Longitude:  &lon,
	})
	require.NoError(t, err)

	msg := toMessage(event)

	assert.Equal(t, "verify-weather", msg.Topic)
	assert.Equal(t, []byte("claim-1"), msg.Key)
	var task domain.DispatchTask
	require.NoError(t, json.Unmarshal(msg.Value, &task))
	assert.Equal(t, "flood", task.HazardType)
	assert.Empty(t, task.Description)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "claim_id", msg.Headers[0].Key)
	assert.Equal(t, "dispatched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, "source", msg.Headers[2].Key)
	assert.Equal(t, []byte("weather"), msg.Headers[2].Value)
}
