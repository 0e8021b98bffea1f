package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/memory"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFixture struct {
	store    *memory.Store
	resolver *Resolver
	user     *entity.User
	basic    *entity.Plan
	pro      *entity.Plan
	pack     *entity.LeadPackage
}

func newResolverFixture() *resolverFixture {
	proCode := "PRO"
	f := &resolverFixture{
		store: memory.NewStore(),
		user:  &entity.User{Id: uuid.New(), Email: "ana@example.com"},
		basic: &entity.Plan{Id: uuid.New(), Name: "Basic", Price: 100, IsActive: true},
		pro:   &entity.Plan{Id: uuid.New(), Name: "Pro", Price: 300, ProviderPlanCode: &proCode, IsActive: true},
		pack:  &entity.LeadPackage{Id: uuid.New(), Name: "500 leads", Leads: 500, IsActive: true},
	}
	f.store.AddUser(f.user)
	f.store.AddPlan(f.basic)
	f.store.AddPlan(f.pro)
	f.store.AddPackage(f.pack)
	f.resolver = NewResolver(catalog.New(time.Minute), time.Second)
	return f
}

func (f *resolverFixture) resolve(n billing.Notification) (*Intent, error) {
	ctx := context.Background()
	return f.resolver.Resolve(ctx, f.store.NewUnitOfWork(ctx), n)
}

func TestResolveToken(t *testing.T) {
	f := newResolverFixture()

	intent, err := f.resolve(billing.Notification{
		Correlation: NewPlanReference(KindUpgrade, f.user.Id, f.pro.Id, time.Now()).String(),
	})
	require.NoError(t, err)
	assert.Equal(t, SourceToken, intent.Source)
	assert.Equal(t, KindUpgrade, intent.Kind)
	assert.Equal(t, f.user.Id, intent.User.Id)
	assert.Equal(t, f.pro.Id, intent.Plan.Id)
	assert.NotNil(t, intent.Reference)

	intent, err = f.resolve(billing.Notification{
		Correlation: NewLeadPackageReference(f.pack.Id, f.user.Id, time.Now()).String(),
	})
	require.NoError(t, err)
	assert.True(t, intent.IsLeadPackage())
	assert.Nil(t, intent.Plan)
}

func TestResolveTokenErrors(t *testing.T) {
	f := newResolverFixture()

	_, err := f.resolve(billing.Notification{
		Correlation: NewPlanReference(KindNew, f.user.Id, uuid.New(), time.Now()).String(),
	})
	assert.True(t, errors.Is(err, billing.ErrUnknownPlan))

	_, err = f.resolve(billing.Notification{
		Correlation: NewLeadPackageReference(uuid.New(), f.user.Id, time.Now()).String(),
	})
	assert.True(t, errors.Is(err, billing.ErrUnknownPackage))
}

func TestResolveFallbacks(t *testing.T) {
	f := newResolverFixture()
	providerId := "sub_1"
	f.store.AddSubscription(&entity.Subscription{
		Id:                     uuid.New(),
		UserId:                 f.user.Id,
		PlanId:                 f.pro.Id,
		Status:                 entity.SubscriptionStatusActive,
		ProviderSubscriptionId: &providerId,
	})

	tests := []struct {
		name       string
		n          billing.Notification
		wantSource Source
		wantKind   Kind
		wantPlan   uuid.UUID
		wantLeads  bool
	}{
		{
			name:       "token user gone falls back to email",
			n:          billing.Notification{Correlation: NewPlanReference(KindNew, uuid.New(), f.basic.Id, time.Now()).String(), PayerEmail: "ANA@example.com", PlanCode: "PRO"},
			wantSource: SourcePayerEmail,
			wantPlan:   f.pro.Id,
		},
		{
			name:       "provider subscription uses the ledger plan",
			n:          billing.Notification{SubscriptionId: "sub_1", ChargeCount: 2},
			wantSource: SourceProviderSubscription,
			wantKind:   KindRenewal,
			wantPlan:   f.pro.Id,
		},
		{
			name:       "email without plan code takes the cheapest plan",
			n:          billing.Notification{PayerEmail: "ana@example.com"},
			wantSource: SourcePayerEmail,
			wantPlan:   f.basic.Id,
		},
		{
			name:       "lead item",
			n:          billing.Notification{PayerEmail: "ana@example.com", ItemIds: []string{"other", LeadPackageItemId(f.pack.Id)}},
			wantSource: SourcePayerEmail,
			wantKind:   KindLeads,
			wantLeads:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := f.resolve(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, intent.Source)
			assert.Equal(t, tt.wantKind, intent.Kind)
			assert.Equal(t, f.user.Id, intent.User.Id)
			assert.Nil(t, intent.Reference)
			if tt.wantLeads {
				assert.True(t, intent.IsLeadPackage())
				return
			}
			require.NotNil(t, intent.Plan)
			assert.Equal(t, tt.wantPlan, intent.Plan.Id)
		})
	}
}

func TestResolveIdentityFailures(t *testing.T) {
	f := newResolverFixture()
	f.store.AddUser(&entity.User{Id: uuid.New(), Email: "shared@example.com"})
	f.store.AddUser(&entity.User{Id: uuid.New(), Email: "shared@example.com"})

	tests := []struct {
		name   string
		n      billing.Notification
		target error
	}{
		{name: "no identifiers", n: billing.Notification{}, target: billing.ErrReferenceUnresolved},
		{name: "unknown email", n: billing.Notification{PayerEmail: "nobody@example.com"}, target: billing.ErrPartialIdentityFailure},
		{name: "ambiguous email", n: billing.Notification{PayerEmail: "shared@example.com"}, target: billing.ErrPartialIdentityFailure},
		{name: "unknown plan code", n: billing.Notification{PayerEmail: "ana@example.com", PlanCode: "GOLD"}, target: billing.ErrUnknownPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.resolve(tt.n)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}
