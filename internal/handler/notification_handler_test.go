package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/memory"
	"leadflow-be/pkg/billing/events"
	pkgEvents "leadflow-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []uuid.UUID
	err  error
}

func (m *recordingMailer) SendTicketOpened(ticket *entity.SupportTicket) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, ticket.Id)
	return nil
}

func ticketEvent(ticketId string) pkgEvents.Event {
	return pkgEvents.BaseEvent{
		Type:       events.TypeSupportTicketOpened,
		Data:       map[string]interface{}{"ticket_id": ticketId},
		OccurredAt: time.Now(),
	}
}

func TestHandleTicketOpened(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	ticket := &entity.SupportTicket{Id: uuid.New(), SubscriptionId: uuid.New(), Type: entity.TicketTypeCancellation, Status: entity.TicketStatusOpen}
	require.NoError(t, store.NewUnitOfWork(ctx).SupportTicketRepository().Create(ctx, ticket))

	tests := []struct {
		name     string
		ticketId string
		mailErr  error
		wantErr  bool
		wantSent int
	}{
		{name: "mails the ticket", ticketId: ticket.Id.String(), wantSent: 1},
		{name: "mail failure is retried", ticketId: ticket.Id.String(), mailErr: errors.New("smtp down"), wantErr: true},
		{name: "unknown ticket is dropped", ticketId: uuid.NewString()},
		{name: "missing id is dropped", ticketId: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &recordingMailer{err: tt.mailErr}
			h := NewNotificationHandler(store, mailer, logger.NewNopLogger())

			err := h.HandleTicketOpened(ctx, ticketEvent(tt.ticketId))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, mailer.sent, tt.wantSent)
		})
	}
}
