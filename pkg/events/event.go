package events

import "time"

// Event is what travels on the ledger bus.
type Event interface {
	// EventType is the subject suffix, e.g. "LEADS_CREDITED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time

	// MessageID identifies the fact being announced. The stream drops a second
	// publish with the same id inside its duplicate window. Empty disables that.
	MessageID() string
}

type BaseEvent struct {
	Id         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func (e BaseEvent) MessageID() string {
	return e.Id
}
