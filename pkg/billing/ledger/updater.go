package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/classifier"
	"leadflow-be/pkg/billing/reference"
	"leadflow-be/pkg/catalog"
)

// Request is one resolved event ready to be applied.
type Request struct {
	Intent        *reference.Intent
	Lifecycle     billing.LifecycleSignal
	PaymentStatus billing.PaymentStatus
	Facts         Facts
}

// Outcome reports what Apply did.
type Outcome struct {
	Operation     billing.Operation
	Before        *entity.Subscription
	After         *entity.Subscription
	Extension     entity.SubscriptionExtension
	Ticket        *entity.SupportTicket
	TicketCreated bool
	Note          string
}

// LeadsDelta is the balance change the outcome produced.
func (o *Outcome) LeadsDelta() int {
	switch {
	case o.After == nil:
		return 0
	case o.Before == nil:
		return o.After.LeadsBalance
	default:
		return o.After.LeadsBalance - o.Before.LeadsBalance
	}
}

type Updater struct {
	catalog      *catalog.Catalog
	cancellation *cancellation.Workflow
	logger       logger.ILogger
	now          func() time.Time
}

func NewUpdater(catalog *catalog.Catalog, cancellation *cancellation.Workflow, logger logger.ILogger) *Updater {
	return &Updater{
		catalog:      catalog,
		cancellation: cancellation,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the time source.
func (u *Updater) WithClock(now func() time.Time) *Updater {
	u.now = now
	return u
}

// Apply classifies the request against the locked active row and writes the result
// in one transaction. Extended columns are left to the caller (Outcome.Extension).
func (u *Updater) Apply(ctx context.Context, uow unitofwork.UnitOfWork, req Request) (*Outcome, error) {
	if req.Intent == nil || req.Intent.User == nil {
		return nil, billing.ErrReferenceUnresolved
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: begin: %v", billing.ErrLedgerWriteFailed, err)
	}
	defer uow.Rollback()

	subs := uow.SubscriptionRepository()
	current, err := subs.FindOne(ctx,
		specification.UserOwnedBy{UserID: req.Intent.User.Id},
		specification.ActiveSubscription{},
		specification.ForUpdate{},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: read active row: %v", billing.ErrLedgerWriteFailed, err)
	}

	var currentPlan *entity.Plan
	if current != nil {
		if currentPlan, err = u.catalog.PlanByID(ctx, uow, current.PlanId); err != nil {
			return nil, err
		}
	}

	op := classifier.Classify(classifier.Input{
		Lifecycle:     req.Lifecycle,
		PaymentStatus: req.PaymentStatus,
		Intent:        req.Intent,
		Current:       current,
		CurrentPlan:   currentPlan,
	})

	now := u.now()
	change, err := Compute(op, current, req.Intent, req.Facts, now)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Operation: op,
		Before:    current,
		Extension: change.Extension,
		Note:      change.Note,
	}

	switch {
	case change.Create != nil:
		err := subs.Create(ctx, change.Create)
		if errors.Is(err, contract.ErrActiveRowExists) {
			return nil, fmt.Errorf("%w: %w", billing.ErrLedgerWriteFailed, billing.ErrConcurrentModification)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: create: %v", billing.ErrLedgerWriteFailed, err)
		}
		outcome.After = change.Create
	case change.Mutation != nil:
		after, err := subs.ApplyMutation(ctx, current.Id, *change.Mutation)
		if errors.Is(err, contract.ErrStaleRow) {
			return nil, fmt.Errorf("%w: %w", billing.ErrLedgerWriteFailed, billing.ErrConcurrentModification)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: update: %v", billing.ErrLedgerWriteFailed, err)
		}
		outcome.After = after
	}

	if op == billing.OperationCancellation && outcome.After != nil {
		cancelled := *outcome.After
		change.Extension.ApplyTo(&cancelled)
		ticket, created, err := u.cancellation.Open(ctx, uow, cancellation.Cancelled{
			Subscription: &cancelled,
			User:         req.Intent.User,
			Plan:         currentPlan,
			Reason:       req.Facts.Reason,
			CancelledAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", billing.ErrLedgerWriteFailed, err)
		}
		outcome.Ticket = ticket
		outcome.TicketCreated = created
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", billing.ErrLedgerWriteFailed, err)
	}

	u.logger.Info("LEDGER", "Ledger updated", map[string]interface{}{
		"operation": op,
		"user_id":   req.Intent.User.Id,
		"delta":     outcome.LeadsDelta(),
		"note":      outcome.Note,
	})
	return outcome, nil
}
