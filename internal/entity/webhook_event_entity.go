package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the idempotency record of one provider delivery.
type WebhookEvent struct {
	Id              uuid.UUID
	ProviderEventId string
	Action          string
	Status          string
	Payload         json.RawMessage
	Processed       bool
	ProcessedAt     *time.Time
	Operation       string
	Note            string
	ErrorMessage    string
	Attempts        int
	// ClaimedAt is set while an attempt runs and cleared when its outcome is
	// written. A claim older than the processing lease belongs to a crashed attempt.
	ClaimedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Settled reports whether the event already produced its side effects.
// Failed events stay eligible for another attempt.
func (e *WebhookEvent) Settled() bool {
	return e.Processed && e.ErrorMessage == ""
}

// WebhookOutcome is what the pipeline writes back onto the event row.
type WebhookOutcome struct {
	Operation    string
	Note         string
	ErrorMessage string
}
