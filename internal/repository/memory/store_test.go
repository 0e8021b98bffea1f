package memory

import (
	"context"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionSingleActiveRow(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.NewUnitOfWork(ctx).SubscriptionRepository()
	userId := uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.Subscription{UserId: userId, Status: entity.SubscriptionStatusActive, LeadsBalance: 10}))

	err := repo.Create(ctx, &entity.Subscription{UserId: userId, Status: entity.SubscriptionStatusActive})
	assert.ErrorIs(t, err, contract.ErrActiveRowExists)

	// history rows are not constrained
	require.NoError(t, repo.Create(ctx, &entity.Subscription{UserId: userId, Status: entity.SubscriptionStatusCancelled}))

	all, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyMutationIsConditional(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	row := &entity.Subscription{Id: uuid.New(), UserId: uuid.New(), Status: entity.SubscriptionStatusActive, LeadsBalance: 300}
	store.AddSubscription(row)
	repo := store.NewUnitOfWork(ctx).SubscriptionRepository()

	updated, err := repo.ApplyMutation(ctx, row.Id, entity.LedgerMutation{
		ExpectedBalance: 300,
		BalanceOp:       entity.BalanceAdd,
		BalanceValue:    500,
	})
	require.NoError(t, err)
	assert.Equal(t, 800, updated.LeadsBalance)

	_, err = repo.ApplyMutation(ctx, row.Id, entity.LedgerMutation{
		ExpectedBalance: 300,
		BalanceOp:       entity.BalanceSet,
		BalanceValue:    1000,
	})
	assert.ErrorIs(t, err, contract.ErrStaleRow)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: row.Id})
	require.NoError(t, err)
	assert.Equal(t, 800, stored.LeadsBalance)
}

func TestRollbackRestoresState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	userId := uuid.New()

	uow := store.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.SubscriptionRepository().Create(ctx, &entity.Subscription{UserId: userId, Status: entity.SubscriptionStatusActive}))
	require.NoError(t, uow.Rollback())

	rows, err := store.NewUnitOfWork(ctx).SubscriptionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Error(t, uow.Commit())
}

func TestUpdateStatusIfUnchanged(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.NewUnitOfWork(ctx).SubscriptionRepository()
	require.NoError(t, repo.Create(ctx, &entity.Subscription{UserId: uuid.New(), Status: entity.SubscriptionStatusActive}))

	rows, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	observed := rows[0].UpdatedAt

	applied, err := repo.UpdateStatusIfUnchanged(ctx, rows[0].Id, observed.Add(-time.Second), entity.SubscriptionStatusExpired, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.UpdateStatusIfUnchanged(ctx, rows[0].Id, observed, entity.SubscriptionStatusExpired, nil)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestWebhookEventCreateIfNotExists(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.NewUnitOfWork(ctx).WebhookEventRepository()

	first, created, err := repo.CreateIfNotExists(ctx, &entity.WebhookEvent{ProviderEventId: "tx_123:approved", Attempts: 1})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfNotExists(ctx, &entity.WebhookEvent{ProviderEventId: "tx_123:approved", Attempts: 1})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)

	require.NoError(t, repo.MarkProcessed(ctx, first.Id, entity.WebhookOutcome{ErrorMessage: "boom"}))
	unsettled, err := repo.FindAll(ctx, specification.UnsettledWebhookEvent{})
	require.NoError(t, err)
	assert.Len(t, unsettled, 1)

	require.NoError(t, repo.MarkProcessed(ctx, first.Id, entity.WebhookOutcome{Operation: "renewal"}))
	unsettled, err = repo.FindAll(ctx, specification.UnsettledWebhookEvent{})
	require.NoError(t, err)
	assert.Empty(t, unsettled)
}

func TestWebhookEventClaimAttempt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.NewUnitOfWork(ctx).WebhookEventRepository()
	claimedAt := time.Now()

	event, _, err := repo.CreateIfNotExists(ctx, &entity.WebhookEvent{ProviderEventId: "tx_9:approved", Attempts: 1, ClaimedAt: &claimedAt})
	require.NoError(t, err)

	claimed, err := repo.ClaimAttempt(ctx, event.Id, claimedAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "live claim must not be taken over")

	claimed, err = repo.ClaimAttempt(ctx, event.Id, claimedAt.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, repo.MarkProcessed(ctx, event.Id, entity.WebhookOutcome{ErrorMessage: "boom"}))
	claimed, err = repo.ClaimAttempt(ctx, event.Id, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed, "released claim is free")

	require.NoError(t, repo.MarkProcessed(ctx, event.Id, entity.WebhookOutcome{Operation: "renewal"}))
	claimed, err = repo.ClaimAttempt(ctx, event.Id, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed, "settled event is never claimed")

	stored, err := repo.FindOne(ctx, specification.ByID{ID: event.Id})
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
	assert.Nil(t, stored.ClaimedAt)
}

func TestQueryOrderingAndPagination(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for i, price := range []float64{300, 100, 200} {
		store.AddPlan(&entity.Plan{Id: uuid.New(), Name: string(rune('A' + i)), Price: price, IsActive: true, SortOrder: i})
	}

	plans, err := store.NewUnitOfWork(ctx).PlanRepository().FindAllPlans(ctx,
		specification.ActiveCatalogEntry{},
		specification.OrderBy{Field: "price"},
		specification.Pagination{Limit: 2},
	)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 100.0, plans[0].Price)
	assert.Equal(t, 200.0, plans[1].Price)

	_, err = store.NewUnitOfWork(ctx).PlanRepository().FindAllPlans(ctx, specification.Filter("no_such_column", 1))
	assert.Error(t, err)
}
