package mailer

import (
	"testing"
	"time"

	"leadflow-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRenderTicketEscapesMetadata(t *testing.T) {
	subId := "sub_1"
	ticket := &entity.SupportTicket{
		Id:                     uuid.New(),
		Priority:               entity.TicketPriorityHigh,
		ProviderSubscriptionId: &subId,
		Metadata: map[string]interface{}{
			"user_email":   "ana@example.com",
			"plan_name":    "Pro",
			"access_until": "2024-07-01T00:00:00Z",
			"reason":       "<script>alert(1)</script>",
		},
		CreatedAt: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	}

	body := renderTicket(ticket, "https://admin.leadflow.test")
	assert.Contains(t, body, "ana@example.com")
	assert.Contains(t, body, "sub_1")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "https://admin.leadflow.test/tickets/"+ticket.Id.String())
}

func TestNoopEmailService(t *testing.T) {
	assert.NoError(t, NewNoopEmailService().SendTicketOpened(&entity.SupportTicket{}))
}

func TestSendWithoutRecipients(t *testing.T) {
	svc := NewEmailService("localhost", 2525, "billing@leadflow.test", "", "LeadFlow Billing", nil, "")
	assert.NoError(t, svc.SendTicketOpened(&entity.SupportTicket{Id: uuid.New()}))
}
