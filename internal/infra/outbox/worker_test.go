package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRoutesByAggregatePrefix(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "booking.events.v1", w.topicFor("booking.requested"))
	assert.Equal(t, "payment.events.v1", w.topicFor("payment.completed"))
	assert.Equal(t, "listing.events.v1", w.topicFor("listing"))

	prefixed := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.payment.events.v1", prefixed.topicFor("payment.failed"))
}

func TestEnvelopeIsCloudEvents(t *testing.T) {
	w := &Worker{Source: "app://staynest"}
	occurred := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "evt-1",
		Name:       "payment.completed",
		Payload:    []byte(`{"payment_id":"pay-1","tx_ref":"booking_bk-1_deadbeef"}`),
		OccurredAt: occurred,
		Aggregate:  "pay-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.envelope(doc)
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "payment.completed.v1", evt["type"])
	assert.Equal(t, "app://staynest", evt["source"])
	assert.Equal(t, "application/json", evt["datacontenttype"])
	assert.NotEmpty(t, evt["id"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])

	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pay-1", data["payment_id"])
}

func TestEnvelopeRejectsUndecodablePayload(t *testing.T) {
	w := &Worker{}
	_, _, err := w.envelope(&EventDocument{Payload: []byte("not-json")})
	assert.Error(t, err)
}

func TestNextRetryFollowsBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}
	now := time.Now()

	assert.WithinDuration(t, now.Add(time.Second), w.nextRetry(0), 100*time.Millisecond)
	assert.WithinDuration(t, now.Add(time.Minute), w.nextRetry(1), 100*time.Millisecond)
	// Attempts past the schedule reuse the last step.
	assert.WithinDuration(t, now.Add(time.Minute), w.nextRetry(7), 100*time.Millisecond)

	unconfigured := &Worker{}
	assert.WithinDuration(t, now.Add(5*time.Second), unconfigured.nextRetry(0), 100*time.Millisecond)
}
