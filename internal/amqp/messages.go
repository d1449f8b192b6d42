package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

// EventType names what happened to a record.
type EventType string

const (
	RecordCreated EventType = "record.created"
	RecordDeleted EventType = "record.deleted"
)

// RecordEvent is published whenever the ledger changes. It carries the whole
// record so consumers never need to read the store.
type RecordEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Month       string    `json:"month"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Comment     string    `json:"comment,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordEvent builds an event for r stamped with the current time.
func NewRecordEvent(t EventType, r core.Record) *RecordEvent {
	return &RecordEvent{
		Type:        t,
		ID:          r.ID,
		Month:       r.Month.String(),
		Category:    string(r.Category),
		AmountCents: r.Amount.Cents,
		Comment:     r.Comment,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes an event and checks its type.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case RecordCreated, RecordDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}

// Record converts the event back into a domain record.
func (e *RecordEvent) Record() (core.Record, error) {
	month, err := core.ParseMonth(e.Month)
	if err != nil {
		return core.Record{}, err
	}
	cat, err := core.ParseCategory(e.Category)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{
		ID:       e.ID,
		Month:    month,
		Category: cat,
		Amount:   core.Money{Cents: e.AmountCents},
		Comment:  e.Comment,
	}, nil
}
