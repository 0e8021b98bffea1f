package cancellation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var (
	ErrTicketNotFound        = errors.New("support ticket not found")
	ErrTicketAlreadyResolved = errors.New("support ticket already resolved")
)

// Notifier tells operators about a ticket. Implemented by the mailer.
type Notifier interface {
	SendTicketOpened(ticket *entity.SupportTicket) error
}

// Publisher announces a ticket to the rest of the platform.
type Publisher interface {
	PublishTicketOpened(ctx context.Context, ticket *entity.SupportTicket)
}

// Workflow opens the manual follow-up for a cancelled subscription. The provider
// charge cannot be stopped from here, so an operator does it from the ticket.
type Workflow struct {
	notifier  Notifier
	publisher Publisher
	logger    logger.ILogger
}

func NewWorkflow(notifier Notifier, publisher Publisher, logger logger.ILogger) *Workflow {
	return &Workflow{
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// Cancelled describes the row that was just cancelled.
type Cancelled struct {
	Subscription *entity.Subscription
	User         *entity.User
	Plan         *entity.Plan
	Reason       string
	CancelledAt  time.Time
}

// Open creates the OPEN ticket for the cancellation, or returns the one already
// open for the same subscription. It must run inside the transaction that flips
// the status, so a retried event never leaves two open tickets.
func (w *Workflow) Open(ctx context.Context, uow unitofwork.UnitOfWork, c Cancelled) (*entity.SupportTicket, bool, error) {
	repo := uow.SupportTicketRepository()

	existing, err := repo.FindOne(ctx,
		specification.Filter("subscription_id", c.Subscription.Id),
		specification.Filter("type", string(entity.TicketTypeCancellation)),
		specification.ByStatus{Status: string(entity.TicketStatusOpen)},
	)
	if err != nil {
		return nil, false, fmt.Errorf("find open ticket: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	metadata := map[string]interface{}{
		"access_until": c.Subscription.CurrentPeriodEnd.Format(time.RFC3339),
		"cancelled_at": c.CancelledAt.Format(time.RFC3339),
		"reason":       c.Reason,
	}
	if c.User != nil {
		metadata["user_email"] = c.User.Email
		metadata["user_name"] = c.User.FullName
	}
	if c.Plan != nil {
		metadata["plan_name"] = c.Plan.Name
	}

	ticket := &entity.SupportTicket{
		Id:                     uuid.New(),
		UserId:                 c.Subscription.UserId,
		SubscriptionId:         c.Subscription.Id,
		Type:                   entity.TicketTypeCancellation,
		Priority:               priority(c.Subscription, c.CancelledAt),
		Status:                 entity.TicketStatusOpen,
		ProviderSubscriptionId: c.Subscription.ProviderSubscriptionId,
		ProviderTransactionId:  c.Subscription.ProviderTransactionId,
		Metadata:               metadata,
	}
	if err := repo.Create(ctx, ticket); err != nil {
		return nil, false, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, true, nil
}

// Announce notifies operators after the ticket is committed. Failures are logged;
// the ticket itself is the durable record.
func (w *Workflow) Announce(ctx context.Context, ticket *entity.SupportTicket) {
	if w.notifier != nil {
		if err := w.notifier.SendTicketOpened(ticket); err != nil {
			w.logger.Warn("CANCELLATION", "Failed to e-mail ticket", map[string]interface{}{
				"ticket_id": ticket.Id,
				"error":     err.Error(),
			})
		}
	}
	if w.publisher != nil {
		w.publisher.PublishTicketOpened(ctx, ticket)
	}
	w.logger.Info("CANCELLATION", "Support ticket opened", map[string]interface{}{
		"ticket_id":       ticket.Id,
		"subscription_id": ticket.SubscriptionId,
		"priority":        ticket.Priority,
	})
}

// Resolve moves an OPEN ticket to RESOLVED.
func (w *Workflow) Resolve(ctx context.Context, uow unitofwork.UnitOfWork, ticketId uuid.UUID, note string) (*entity.SupportTicket, error) {
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.SupportTicketRepository()
	ticket, err := repo.FindOne(ctx, specification.ByID{ID: ticketId}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == entity.TicketStatusResolved {
		return nil, ErrTicketAlreadyResolved
	}

	now := time.Now()
	ticket.Status = entity.TicketStatusResolved
	ticket.ResolvedAt = &now
	ticket.ResolutionNote = strings.TrimSpace(note)
	if err := repo.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return ticket, nil
}

// priority is HIGH while the customer is still inside the refund window.
func priority(sub *entity.Subscription, at time.Time) entity.TicketPriority {
	if sub.RefundDeadline != nil && at.Before(*sub.RefundDeadline) {
		return entity.TicketPriorityHigh
	}
	return entity.TicketPriorityNormal
}
