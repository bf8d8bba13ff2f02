package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Event tests ---

func TestNewEvent_Fields(t *testing.T) {
	type ReindexData struct {
		Total     int `json:"total"`
		Processed int `json:"processed"`
	}

	data := ReindexData{Total: 12, Processed: 11}
	event, err := NewEvent("search.reindex_completed", "catalog", "catalog", "searchsync", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID, "EventID should be a non-empty UUID")
	assert.Equal(t, "search.reindex_completed", event.EventType)
	assert.Equal(t, "catalog", event.AggregateID)
	assert.Equal(t, "catalog", event.AggregateType)
	assert.Equal(t, "searchsync", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.NotNil(t, event.Metadata)
	assert.NotNil(t, event.Data)

	var roundTripped ReindexData
	require.NoError(t, json.Unmarshal(event.Data, &roundTripped))
	assert.Equal(t, data, roundTripped)
}

func TestNewEvent_InvalidData(t *testing.T) {
	// Channels are not serializable to JSON.
	_, err := NewEvent("test.event", "agg-1", "test", "test-service", make(chan int))
	require.Error(t, err)
}

func TestEvent_Marshal_Unmarshal(t *testing.T) {
	original, err := NewEvent("product.updated", "prod-456", "product", "catalog", map[string]string{"name": "Widget"})
	require.NoError(t, err)
	original.CorrelationID = "corr-abc"

	bytes, err := original.Marshal()
	require.NoError(t, err)
	assert.NotEmpty(t, bytes)

	restored, err := UnmarshalEvent(bytes)
	require.NoError(t, err)

	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, original.EventType, restored.EventType)
	assert.Equal(t, original.AggregateID, restored.AggregateID)
	assert.Equal(t, original.CorrelationID, restored.CorrelationID)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
	assert.WithinDuration(t, original.Timestamp, restored.Timestamp, time.Millisecond)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	event, err := NewEvent("test.event", "agg-1", "test", "svc", nil)
	require.NoError(t, err)

	result := event.WithCorrelationID("corr-xyz")
	assert.Same(t, event, result, "WithCorrelationID should return the same event for chaining")
	assert.Equal(t, "corr-xyz", event.CorrelationID)
}

func TestEvent_UnmarshalData(t *testing.T) {
	type Payload struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}

	payload := Payload{ID: "prod-1", Slug: "silk-scarf"}
	event, err := NewEvent("product.created", "prod-1", "product", "catalog", payload)
	require.NoError(t, err)

	var target Payload
	require.NoError(t, event.UnmarshalData(&target))
	assert.Equal(t, payload, target)
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{broken json`))
	require.Error(t, err)
}

// --- ProducerConfig tests ---

func TestDefaultProducerConfig(t *testing.T) {
	brokers := []string{"broker1:9092", "broker2:9092"}
	cfg := DefaultProducerConfig(brokers)

	assert.Equal(t, brokers, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async)
}

// --- Topic tests ---

func TestTopic_Format(t *testing.T) {
	assert.Equal(t, "commerce.search.reindex_completed", Topic("search", "reindex_completed"))
	assert.Equal(t, "commerce.product.created", Topic("product", "created"))
}

// --- Producer tests ---

func TestNewProducer_CreatesInstance(t *testing.T) {
	// NewProducer requires broker addresses but does not connect immediately.
	cfg := DefaultProducerConfig([]string{"localhost:19092"})
	p := NewProducer(cfg, testLogger())
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)

	// Close should succeed even without a real broker.
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
