package unitofwork

import (
	"context"

	"leadflow-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PlanRepository() contract.PlanRepository
	SubscriptionRepository() contract.SubscriptionRepository
	WebhookEventRepository() contract.WebhookEventRepository
	SupportTicketRepository() contract.SupportTicketRepository
}
