package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope shared by all catalog and order events consumed by
// the indexing pipeline.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent builds an event with a generated ID and current timestamp.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
		Metadata:      make(map[string]string),
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Marshal serializes the event to JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData decodes the event payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}

// UnmarshalEvent deserializes an event from JSON.
func UnmarshalEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
