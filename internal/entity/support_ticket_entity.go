// FILE: internal/entity/support_ticket_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type TicketType string
type TicketStatus string
type TicketPriority string

const (
	TicketTypeCancellation TicketType = "cancellation"

	TicketStatusOpen     TicketStatus = "OPEN"
	TicketStatusResolved TicketStatus = "RESOLVED"

	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// SupportTicket is a manual follow-up for an operator, opened when the provider
// charge cannot be stopped programmatically.
type SupportTicket struct {
	Id                     uuid.UUID
	UserId                 uuid.UUID
	SubscriptionId         uuid.UUID
	Type                   TicketType
	Priority               TicketPriority
	Status                 TicketStatus
	ProviderSubscriptionId *string
	ProviderTransactionId  *string
	Metadata               map[string]interface{}
	ResolutionNote         string
	ResolvedAt             *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
