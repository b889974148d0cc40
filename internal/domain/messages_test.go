package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaimMessage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"claim_id":" c-1 ","reporter_id":"u-9","hazard_type":"Storm Surge","description":"Water over the promenade","latitude":13.08,"longitude":80.27}`)}
		sub, err := ParseClaimMessage(raw)
		require.NoError(t, err)
		assert.Equal(t, "c-1", sub.ClaimID)
		assert.Equal(t, "u-9", sub.ReporterID)
		assert.Equal(t, "Storm Surge", sub.HazardType)
		assert.Equal(t, Location{Latitude: 13.08, Longitude: 80.27}, sub.Location)
	})

	t.Run("zero coordinates are allowed", func(t *testing.T) {
		_, err := ParseClaimMessage(RawEvent{Value: []byte(`{"hazard_type":"High Waves","latitude":0,"longitude":0}`)})
		require.NoError(t, err)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		_, err := ParseClaimMessage(RawEvent{Value: []byte(`{"hazard_type":"High Waves"}`)})
		require.ErrorIs(t, err, ErrInvalidClaim)
	})

	t.Run("missing hazard type", func(t *testing.T) {
		_, err := ParseClaimMessage(RawEvent{Value: []byte(`{"hazard_type":"  ","latitude":1,"longitude":2}`)})
		require.ErrorIs(t, err, ErrInvalidClaim)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := ParseClaimMessage(RawEvent{Value: []byte(`{"hazard_type":"Tsunami","latitude":91,"longitude":2}`)})
		require.ErrorIs(t, err, ErrInvalidClaim)
		_, err = ParseClaimMessage(RawEvent{Value: []byte(`{"hazard_type":"Tsunami","latitude":1,"longitude":-181}`)})
		require.ErrorIs(t, err, ErrInvalidClaim)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseClaimMessage(RawEvent{Value: []byte("not json")})
		require.ErrorIs(t, err, ErrInvalidMessage)
		assert.True(t, IsPermanent(err))
	})
}

func TestParseResultMessage(t *testing.T) {
	msg, err := ParseResultMessage(RawEvent{Value: []byte(`{"claim_id":"c-1","source":"weather","payload":{"match_status":"confirmed"}}`)})
	require.NoError(t, err)
	assert.Equal(t, "c-1", msg.ClaimID)
	assert.Equal(t, "weather", msg.Source)
	assert.JSONEq(t, `{"match_status":"confirmed"}`, string(msg.Payload))

	_, err = ParseResultMessage(RawEvent{Value: []byte(`{"source":"weather"}`)})
	require.ErrorIs(t, err, ErrInvalidMessage)

	_, err = ParseResultMessage(RawEvent{Value: []byte(`{{`)})
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestSerializeDispatchTask(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	claim := NewClaim("c-7", Submission{
		HazardType:  "Coastal Flooding",
		Description: "Street flooded near the harbour",
		Location:    Location{Latitude: 9.93, Longitude: 76.26},
	}, fakeClock.Now())

	t.Run("weather gets coordinates", func(t *testing.T) {
		out, err := SerializeDispatchTask("verify-", NewDispatchTask(claim, SourceWeather))
		require.NoError(t, err)
		assert.Equal(t, "verify-weather", out.Topic)
		assert.Equal(t, []byte("c-7"), out.Key)
		assert.Equal(t, "weather", out.Headers["source"])
		assert.Equal(t, "2025-03-14T09:30:00Z", out.Headers["dispatched_at"])
		assert.JSONEq(t, `{"claim_id":"c-7","source":"weather","hazard_type":"Coastal Flooding","latitude":9.93,"longitude":76.26}`, string(out.Value))
	})

	t.Run("nlp gets the description only", func(t *testing.T) {
		out, err := SerializeDispatchTask("verify-", NewDispatchTask(claim, SourceNLP))
		require.NoError(t, err)
		var task map[string]any
		require.NoError(t, json.Unmarshal(out.Value, &task))
		assert.Equal(t, "Street flooded near the harbour", task["description"])
		assert.NotContains(t, task, "latitude")
	})
}
