package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type WebhookEventResponse struct {
	Id              uuid.UUID       `json:"id"`
	ProviderEventId string          `json:"provider_event_id"`
	Action          string          `json:"action"`
	Status          string          `json:"status"`
	Processed       bool            `json:"processed"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	Operation       string          `json:"operation,omitempty"`
	Note            string          `json:"note,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	Attempts        int             `json:"attempts"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SupportTicketResponse struct {
	Id                     uuid.UUID              `json:"id"`
	UserId                 uuid.UUID              `json:"user_id"`
	SubscriptionId         uuid.UUID              `json:"subscription_id"`
	Type                   string                 `json:"type"`
	Priority               string                 `json:"priority"`
	Status                 string                 `json:"status"`
	ProviderSubscriptionId string                 `json:"provider_subscription_id,omitempty"`
	ProviderTransactionId  string                 `json:"provider_transaction_id,omitempty"`
	Metadata               map[string]interface{} `json:"metadata"`
	ResolutionNote         string                 `json:"resolution_note,omitempty"`
	ResolvedAt             *time.Time             `json:"resolved_at,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
}

type ResolveTicketRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

type SweepReportResponse struct {
	Scanned    int       `json:"scanned"`
	Updated    int       `json:"updated"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type ListQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Normalize clamps the paging values.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
