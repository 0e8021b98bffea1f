package memory

import (
	"context"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

type userRepository struct {
	uow *unitOfWork
}

func (r *userRepository) FindOne(ctx context.Context, specs ...specification.Specification) (found *entity.User, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.users), specs)
	})
	return found, err
}

func (r *userRepository) FindAll(ctx context.Context, specs ...specification.Specification) (found []*entity.User, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.users), specs)
	})
	return found, err
}

type planRepository struct {
	uow *unitOfWork
}

func (r *planRepository) FindOnePlan(ctx context.Context, specs ...specification.Specification) (found *entity.Plan, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.plans), specs)
	})
	return found, err
}

func (r *planRepository) FindAllPlans(ctx context.Context, specs ...specification.Specification) (found []*entity.Plan, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.plans), specs)
	})
	return found, err
}

func (r *planRepository) FindOnePackage(ctx context.Context, specs ...specification.Specification) (found *entity.LeadPackage, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.packages), specs)
	})
	return found, err
}

func (r *planRepository) FindAllPackages(ctx context.Context, specs ...specification.Specification) (found []*entity.LeadPackage, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.packages), specs)
	})
	return found, err
}

type subscriptionRepository struct {
	uow *unitOfWork
}

func (r *subscriptionRepository) activeConflict(userId, exclude uuid.UUID) bool {
	for _, s := range r.uow.store.subscriptions {
		if s.UserId == userId && s.Id != exclude && s.Status == entity.SubscriptionStatusActive {
			return true
		}
	}
	return false
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) (err error) {
	r.uow.do(func() {
		if subscription.Status == entity.SubscriptionStatusActive && r.activeConflict(subscription.UserId, subscription.Id) {
			err = contract.ErrActiveRowExists
			return
		}
		if subscription.Id == uuid.Nil {
			subscription.Id = uuid.New()
		}
		now := time.Now()
		subscription.CreatedAt = now
		subscription.UpdatedAt = now
		row := entity.Subscription{
			Id:                 subscription.Id,
			UserId:             subscription.UserId,
			PlanId:             subscription.PlanId,
			Status:             subscription.Status,
			LeadsBalance:       subscription.LeadsBalance,
			CurrentPeriodStart: subscription.CurrentPeriodStart,
			CurrentPeriodEnd:   subscription.CurrentPeriodEnd,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		r.uow.store.subscriptions[row.Id] = &row
	})
	return err
}

func (r *subscriptionRepository) ApplyMutation(ctx context.Context, id uuid.UUID, mutation entity.LedgerMutation) (updated *entity.Subscription, err error) {
	r.uow.do(func() {
		row, ok := r.uow.store.subscriptions[id]
		if !ok || row.LeadsBalance != mutation.ExpectedBalance {
			err = contract.ErrStaleRow
			return
		}
		if mutation.Status != nil && *mutation.Status == entity.SubscriptionStatusActive && r.activeConflict(row.UserId, row.Id) {
			err = contract.ErrActiveRowExists
			return
		}
		row.LeadsBalance = mutation.ResultingBalance(row.LeadsBalance)
		if mutation.PlanId != nil {
			row.PlanId = *mutation.PlanId
		}
		if mutation.Status != nil {
			row.Status = *mutation.Status
		}
		if mutation.PeriodStart != nil {
			row.CurrentPeriodStart = *mutation.PeriodStart
		}
		if mutation.PeriodEnd != nil {
			row.CurrentPeriodEnd = *mutation.PeriodEnd
		}
		row.UpdatedAt = time.Now()
		c := *row
		updated = &c
	})
	return updated, err
}

func (r *subscriptionRepository) PatchExtension(ctx context.Context, id uuid.UUID, extension entity.SubscriptionExtension) error {
	r.uow.do(func() {
		if row, ok := r.uow.store.subscriptions[id]; ok {
			extension.ApplyTo(row)
		}
	})
	return nil
}

func (r *subscriptionRepository) UpdateStatusIfUnchanged(ctx context.Context, id uuid.UUID, observedUpdatedAt time.Time, status entity.SubscriptionStatus, periodEnd *time.Time) (applied bool, err error) {
	r.uow.do(func() {
		row, ok := r.uow.store.subscriptions[id]
		if !ok || !row.UpdatedAt.Equal(observedUpdatedAt) {
			return
		}
		if status == entity.SubscriptionStatusActive && r.activeConflict(row.UserId, row.Id) {
			err = contract.ErrActiveRowExists
			return
		}
		row.Status = status
		if periodEnd != nil {
			row.CurrentPeriodEnd = *periodEnd
		}
		row.UpdatedAt = time.Now()
		applied = true
	})
	return applied, err
}

func (r *subscriptionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (found *entity.Subscription, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.subscriptions), specs)
	})
	return found, err
}

func (r *subscriptionRepository) FindAll(ctx context.Context, specs ...specification.Specification) (found []*entity.Subscription, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.subscriptions), specs)
	})
	return found, err
}

type webhookEventRepository struct {
	uow *unitOfWork
}

func (r *webhookEventRepository) CreateIfNotExists(ctx context.Context, event *entity.WebhookEvent) (stored *entity.WebhookEvent, created bool, err error) {
	r.uow.do(func() {
		for _, e := range r.uow.store.events {
			if e.ProviderEventId == event.ProviderEventId {
				c := *e
				stored = &c
				return
			}
		}
		row := *event
		if row.Id == uuid.Nil {
			row.Id = uuid.New()
		}
		now := time.Now()
		row.CreatedAt = now
		row.UpdatedAt = now
		r.uow.store.events[row.Id] = &row
		c := row
		stored, created = &c, true
	})
	return stored, created, err
}

func (r *webhookEventRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, staleBefore time.Time) (claimed bool, err error) {
	r.uow.do(func() {
		row, ok := r.uow.store.events[id]
		if !ok || row.Settled() {
			return
		}
		if row.ClaimedAt != nil && !row.ClaimedAt.Before(staleBefore) {
			return
		}
		now := time.Now()
		row.Attempts++
		row.Processed = false
		row.ClaimedAt = &now
		row.UpdatedAt = now
		claimed = true
	})
	return claimed, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, outcome entity.WebhookOutcome) error {
	r.uow.do(func() {
		if row, ok := r.uow.store.events[id]; ok {
			now := time.Now()
			row.Processed = true
			row.ProcessedAt = &now
			row.Operation = outcome.Operation
			row.Note = outcome.Note
			row.ErrorMessage = outcome.ErrorMessage
			row.ClaimedAt = nil
			row.UpdatedAt = now
		}
	})
	return nil
}

func (r *webhookEventRepository) FindOne(ctx context.Context, specs ...specification.Specification) (found *entity.WebhookEvent, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.events), specs)
	})
	return found, err
}

func (r *webhookEventRepository) FindAll(ctx context.Context, specs ...specification.Specification) (found []*entity.WebhookEvent, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.events), specs)
	})
	return found, err
}

type supportTicketRepository struct {
	uow *unitOfWork
}

func (r *supportTicketRepository) Create(ctx context.Context, ticket *entity.SupportTicket) error {
	r.uow.do(func() {
		if ticket.Id == uuid.Nil {
			ticket.Id = uuid.New()
		}
		now := time.Now()
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		row := *ticket
		r.uow.store.tickets[row.Id] = &row
	})
	return nil
}

func (r *supportTicketRepository) Update(ctx context.Context, ticket *entity.SupportTicket) error {
	r.uow.do(func() {
		ticket.UpdatedAt = time.Now()
		row := *ticket
		r.uow.store.tickets[row.Id] = &row
	})
	return nil
}

func (r *supportTicketRepository) FindOne(ctx context.Context, specs ...specification.Specification) (found *entity.SupportTicket, err error) {
	r.uow.do(func() {
		found, err = first(values(r.uow.store.tickets), specs)
	})
	return found, err
}

func (r *supportTicketRepository) FindAll(ctx context.Context, specs ...specification.Specification) (found []*entity.SupportTicket, err error) {
	r.uow.do(func() {
		found, err = query(values(r.uow.store.tickets), specs)
	})
	return found, err
}
