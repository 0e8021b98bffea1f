package handler

import (
	"context"
	"fmt"

	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/pkg/mailer"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/billing/events"
	pkgEvents "leadflow-be/pkg/events"
	pktNats "leadflow-be/pkg/nats"

	"github.com/google/uuid"
)

const ticketMailerDurable = "leadflow-ticket-mailer"

// NotificationHandler mails operators when a cancellation ticket is announced on
// the event bus. Redelivery makes the mail survive a crash between commit and send.
type NotificationHandler struct {
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewNotificationHandler(uowFactory unitofwork.RepositoryFactory, mailer mailer.IEmailService, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		uowFactory: uowFactory,
		mailer:     mailer,
		logger:     log,
	}
}

// Start subscribes the handler to SUPPORT_TICKET_OPENED events.
func (h *NotificationHandler) Start(ctx context.Context, subscriber *pktNats.Subscriber) error {
	return subscriber.Subscribe(ctx, pktNats.Subject(events.TypeSupportTicketOpened), ticketMailerDurable, h.HandleTicketOpened)
}

func (h *NotificationHandler) HandleTicketOpened(ctx context.Context, event pkgEvents.Event) error {
	raw, _ := event.Payload()["ticket_id"].(string)
	ticketId, err := uuid.Parse(raw)
	if err != nil {
		// nothing to retry
		h.logger.Warn("CANCELLATION", "Ticket event without ticket id", map[string]interface{}{
			"payload": event.Payload(),
		})
		return nil
	}

	uow := h.uowFactory.NewUnitOfWork(ctx)
	ticket, err := uow.SupportTicketRepository().FindOne(ctx, specification.ByID{ID: ticketId})
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", ticketId, err)
	}
	if ticket == nil {
		h.logger.Warn("CANCELLATION", "Announced ticket not found", map[string]interface{}{"ticket_id": ticketId})
		return nil
	}

	if err := h.mailer.SendTicketOpened(ticket); err != nil {
		return fmt.Errorf("mail ticket %s: %w", ticketId, err)
	}
	h.logger.Info("CANCELLATION", "Operators notified", map[string]interface{}{"ticket_id": ticketId})
	return nil
}
