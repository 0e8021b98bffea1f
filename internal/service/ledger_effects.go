package service

import (
	"context"

	"leadflow-be/internal/pkg/logger"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/events"
	"leadflow-be/pkg/billing/ledger"
)

// ledgerEffects fires what follows a committed ledger write: the extended column
// patch, the domain event and the operator notification.
type ledgerEffects struct {
	extensions   IConsumerService
	publisher    events.Publisher
	cancellation *cancellation.Workflow
	logger       logger.ILogger
}

func (e ledgerEffects) dispatch(ctx context.Context, outcome *ledger.Outcome) {
	if outcome == nil || outcome.After == nil {
		return
	}
	if err := e.extensions.PublishExtension(ctx, outcome.After.Id, outcome.Extension); err != nil {
		e.logger.Warn("LEDGER", "Extension patch not queued", map[string]interface{}{
			"subscription_id": outcome.After.Id,
			"error":           err.Error(),
		})
	}
	e.publisher.PublishLedgerChange(ctx, outcome.Operation, outcome.After, outcome.LeadsDelta())
	if outcome.TicketCreated {
		e.cancellation.Announce(ctx, outcome.Ticket)
	}
}
