package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/memory"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/authenticator"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/ledger"
	"leadflow-be/pkg/billing/reference"
	"leadflow-be/pkg/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []billing.Operation
	tickets []*entity.SupportTicket
	sweeps  []map[string]interface{}
}

func (p *recordingPublisher) PublishLedgerChange(ctx context.Context, op billing.Operation, sub *entity.Subscription, leadsDelta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, op)
}

func (p *recordingPublisher) PublishTicketOpened(ctx context.Context, ticket *entity.SupportTicket) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickets = append(p.tickets, ticket)
}

func (p *recordingPublisher) PublishSweepCompleted(ctx context.Context, summary map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweeps = append(p.sweeps, summary)
}

type recordingExtensions struct {
	mu      sync.Mutex
	patches map[uuid.UUID]entity.SubscriptionExtension
}

func (e *recordingExtensions) PublishExtension(ctx context.Context, subscriptionId uuid.UUID, extension entity.SubscriptionExtension) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.patches == nil {
		e.patches = make(map[uuid.UUID]entity.SubscriptionExtension)
	}
	e.patches[subscriptionId] = extension
	return nil
}

func (e *recordingExtensions) Consume(ctx context.Context) error {
	return nil
}

type fixture struct {
	store      *memory.Store
	catalog    *catalog.Catalog
	publisher  *recordingPublisher
	extensions *recordingExtensions
	workflow   *cancellation.Workflow
	updater    *ledger.Updater
	log        *logger.ZapLogger

	user  *entity.User
	basic *entity.Plan
	pro   *entity.Plan
	pack  *entity.LeadPackage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	basicCode := "BASIC"
	f := &fixture{
		store:      memory.NewStore(),
		catalog:    catalog.New(time.Minute),
		publisher:  &recordingPublisher{},
		extensions: &recordingExtensions{},
		log:        logger.NewNopLogger(),
		user:       &entity.User{Id: uuid.New(), Email: "ana@example.com", FullName: "Ana Lima", Role: entity.UserRoleUser},
		basic:      &entity.Plan{Id: uuid.New(), Name: "Basic", Price: 100000, LeadsIncluded: 1000, ProviderPlanCode: &basicCode, IsActive: true, SortOrder: 1},
		pro:        &entity.Plan{Id: uuid.New(), Name: "Pro", Price: 300000, LeadsIncluded: 4000, IsActive: true, SortOrder: 2},
		pack:       &entity.LeadPackage{Id: uuid.New(), Name: "500 leads", Price: 50000, Leads: 500, IsActive: true},
	}
	f.store.AddUser(f.user)
	f.store.AddPlan(f.basic)
	f.store.AddPlan(f.pro)
	f.store.AddPackage(f.pack)

	f.workflow = cancellation.NewWorkflow(nil, f.publisher, f.log)
	f.updater = ledger.NewUpdater(f.catalog, f.workflow, f.log)
	return f
}

func (f *fixture) webhookService() IWebhookService {
	return NewWebhookService(
		f.store,
		authenticator.NewAuthenticator(""),
		reference.NewResolver(f.catalog, time.Second),
		f.updater,
		f.workflow,
		f.publisher,
		f.extensions,
		f.log,
		10*time.Second,
	)
}

// subscribe stores an active row on plan with the given balance.
func (f *fixture) subscribe(plan *entity.Plan, balance int, providerSubscriptionId string) *entity.Subscription {
	row := &entity.Subscription{
		Id:                 uuid.New(),
		UserId:             f.user.Id,
		PlanId:             plan.Id,
		Status:             entity.SubscriptionStatusActive,
		LeadsBalance:       balance,
		CurrentPeriodStart: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
	}
	if providerSubscriptionId != "" {
		row.ProviderSubscriptionId = &providerSubscriptionId
	}
	f.store.AddSubscription(row)
	return row
}

func (f *fixture) subscriptions(t *testing.T, specs ...specification.Specification) []*entity.Subscription {
	t.Helper()
	ctx := context.Background()
	rows, err := f.store.NewUnitOfWork(ctx).SubscriptionRepository().FindAll(ctx,
		append([]specification.Specification{specification.UserOwnedBy{UserID: f.user.Id}}, specs...)...)
	require.NoError(t, err)
	return rows
}

func (f *fixture) events(t *testing.T) []*entity.WebhookEvent {
	t.Helper()
	ctx := context.Background()
	rows, err := f.store.NewUnitOfWork(ctx).WebhookEventRepository().FindAll(ctx)
	require.NoError(t, err)
	return rows
}

func (f *fixture) tickets(t *testing.T) []*entity.SupportTicket {
	t.Helper()
	ctx := context.Background()
	rows, err := f.store.NewUnitOfWork(ctx).SupportTicketRepository().FindAll(ctx)
	require.NoError(t, err)
	return rows
}

func notificationBody(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(fields)
	require.NoError(t, err)
	return body
}

func settlement(txId, token string) map[string]interface{} {
	return map[string]interface{}{
		"transaction_id":     txId,
		"order_id":           "ORD-" + txId,
		"status_code":        "200",
		"transaction_status": "settlement",
		"gross_amount":       "100000.00",
		"custom_field1":      token,
	}
}
