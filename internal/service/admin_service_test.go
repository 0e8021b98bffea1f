package service

import (
	"context"
	"testing"
	"time"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/entity"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/reference"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUnsettledEventsAndReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	webhooks := f.webhookService()
	admin := NewAdminService(f.store, webhooks, f.workflow, nil)

	later := &entity.Plan{Id: uuid.New(), Name: "Team", Price: 500000, LeadsIncluded: 9000, IsActive: true}
	token := reference.NewPlanReference(reference.KindNew, f.user.Id, later.Id, time.Now()).String()
	require.False(t, webhooks.Handle(ctx, notificationBody(t, settlement("tx_900", token))).Success)

	good := reference.NewPlanReference(reference.KindNew, f.user.Id, f.basic.Id, time.Now()).String()
	pending := settlement("tx_901", good)
	pending["transaction_status"] = "pending"
	require.True(t, webhooks.Handle(ctx, notificationBody(t, pending)).Success)

	unsettled, err := admin.GetUnsettledEvents(ctx, dto.ListQuery{})
	require.NoError(t, err)
	require.Len(t, unsettled, 1)
	assert.Equal(t, "tx_900:approved", unsettled[0].ProviderEventId)
	assert.NotEmpty(t, unsettled[0].ErrorMessage)

	f.store.AddPlan(later)
	result, err := admin.ReplayEvent(ctx, unsettled[0].Id)
	require.NoError(t, err)
	assert.Equal(t, 9000, result.LeadsDelta)

	unsettled, err = admin.GetUnsettledEvents(ctx, dto.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, unsettled)
}

func TestAdminTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store, f.webhookService(), f.workflow, nil)

	first := f.subscribe(f.pro, 10, "")
	_, _, err := f.workflow.Open(ctx, f.store.NewUnitOfWork(ctx), cancellation.Cancelled{Subscription: first, CancelledAt: time.Now()})
	require.NoError(t, err)
	second := &entity.Subscription{Id: uuid.New(), UserId: f.user.Id, PlanId: f.basic.Id, Status: entity.SubscriptionStatusCancelled}
	other, _, err := f.workflow.Open(ctx, f.store.NewUnitOfWork(ctx), cancellation.Cancelled{Subscription: second, CancelledAt: time.Now()})
	require.NoError(t, err)

	open, err := admin.GetTickets(ctx, "OPEN", dto.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	resolved, err := admin.ResolveTicket(ctx, other.Id, &dto.ResolveTicketRequest{Note: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, "RESOLVED", resolved.Status)
	assert.Equal(t, "refunded", resolved.ResolutionNote)

	open, err = admin.GetTickets(ctx, "OPEN", dto.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	all, err := admin.GetTickets(ctx, "", dto.ListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = admin.ResolveTicket(ctx, other.Id, &dto.ResolveTicketRequest{Note: "again"})
	assert.ErrorIs(t, err, cancellation.ErrTicketAlreadyResolved)
}
