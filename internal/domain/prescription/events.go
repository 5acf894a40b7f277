package prescription

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/andremillet/prescreveai/internal/shorthand"
)

// EventType represents the type of domain event
type EventType string

const (
	EventPrescriptionIssued EventType = "PrescriptionIssued"
)

// Event is the envelope published for every domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     EventType       `json:"event_type"`
	EventData     json.RawMessage `json:"event_data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// NewEvent creates a new event
func NewEvent(aggregateID string, eventType EventType, data interface{}) (*Event, error) {
	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: "Prescription",
		EventType:     eventType,
		EventData:     eventData,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// IssuedData describes a rendered prescription document. Only the emitter's
// license number travels with it.
type IssuedData struct {
	DocumentID  string             `json:"document_id"`
	Template    string             `json:"template"`
	Medications []shorthand.Record `json:"medicacoes"`
	EmitterCRM  string             `json:"emitter_crm"`
	IssuedAt    time.Time          `json:"issued_at"`
}

// NewIssuedEvent wraps data in a PrescriptionIssued envelope keyed by the
// document ID.
func NewIssuedEvent(data *IssuedData, correlationID string) (*Event, error) {
	event, err := NewEvent(data.DocumentID, EventPrescriptionIssued, data)
	if err != nil {
		return nil, err
	}
	event.CorrelationID = correlationID
	return event, nil
}

// DecodeIssued extracts IssuedData from a PrescriptionIssued event.
func (e *Event) DecodeIssued() (*IssuedData, error) {
	var data IssuedData
	if err := json.Unmarshal(e.EventData, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
