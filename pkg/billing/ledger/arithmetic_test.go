package ledger

import (
	"errors"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/reference"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	basicPlan = &entity.Plan{Id: uuid.New(), Name: "Basic", Price: 100, LeadsIncluded: 1000, IsActive: true}
	proPlan   = &entity.Plan{Id: uuid.New(), Name: "Pro", Price: 300, LeadsIncluded: 4000, IsActive: true}
	leadPack  = &entity.LeadPackage{Id: uuid.New(), Name: "500 leads", Price: 50, Leads: 500, IsActive: true}
	customer  = &entity.User{Id: uuid.New(), Email: "ana@example.com", FullName: "Ana"}
)

func activeRow(plan *entity.Plan, balance int) *entity.Subscription {
	return &entity.Subscription{
		Id:                 uuid.New(),
		UserId:             customer.Id,
		PlanId:             plan.Id,
		Status:             entity.SubscriptionStatusActive,
		LeadsBalance:       balance,
		CurrentPeriodStart: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
	}
}

func planIntent(kind reference.Kind, plan *entity.Plan) *reference.Intent {
	return &reference.Intent{Kind: kind, User: customer, Plan: plan}
}

func TestComputeNewSubscription(t *testing.T) {
	change, err := Compute(billing.OperationNewSubscription, nil, planIntent(reference.KindNew, proPlan), Facts{TransactionId: "tx_1"}, now)
	require.NoError(t, err)
	require.NotNil(t, change.Create)
	assert.Nil(t, change.Mutation)

	assert.Equal(t, 4000, change.Create.LeadsBalance)
	assert.Equal(t, proPlan.Id, change.Create.PlanId)
	assert.Equal(t, entity.SubscriptionStatusActive, change.Create.Status)
	assert.Equal(t, now, change.Create.CurrentPeriodStart)
	assert.Equal(t, time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC), change.Create.CurrentPeriodEnd)

	require.NotNil(t, change.Extension.RefundDeadline)
	assert.Equal(t, now.Add(RefundWindow), *change.Extension.RefundDeadline)
	require.NotNil(t, change.Extension.ProviderTransactionId)
	assert.Equal(t, "tx_1", *change.Extension.ProviderTransactionId)
}

func TestComputeMutations(t *testing.T) {
	tests := []struct {
		name        string
		op          billing.Operation
		current     *entity.Subscription
		intent      *reference.Intent
		wantBalance int
		wantPlan    uuid.UUID
		slides      bool
	}{
		{
			name:        "renewal resets to the plan allowance",
			op:          billing.OperationRenewal,
			current:     activeRow(basicPlan, 300),
			intent:      planIntent(reference.KindRenewal, basicPlan),
			wantBalance: 1000,
			wantPlan:    basicPlan.Id,
			slides:      true,
		},
		{
			name:        "renewal onto another plan accumulates",
			op:          billing.OperationRenewalPlanChange,
			current:     activeRow(basicPlan, 300),
			intent:      planIntent(reference.KindRenewal, proPlan),
			wantBalance: 4300,
			wantPlan:    proPlan.Id,
			slides:      true,
		},
		{
			name:        "upgrade accumulates",
			op:          billing.OperationUpgrade,
			current:     activeRow(basicPlan, 300),
			intent:      planIntent(reference.KindUpgrade, proPlan),
			wantBalance: 4300,
			wantPlan:    proPlan.Id,
		},
		{
			name:        "downgrade keeps the balance",
			op:          billing.OperationDowngrade,
			current:     activeRow(proPlan, 300),
			intent:      planIntent(reference.KindDowngrade, basicPlan),
			wantBalance: 300,
			wantPlan:    basicPlan.Id,
		},
		{
			name:        "lead pack adds on top",
			op:          billing.OperationLeadPackageCredit,
			current:     activeRow(basicPlan, 300),
			intent:      &reference.Intent{Kind: reference.KindLeads, User: customer, Package: leadPack},
			wantBalance: 800,
			wantPlan:    basicPlan.Id,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := Compute(tt.op, tt.current, tt.intent, Facts{}, now)
			require.NoError(t, err)
			require.NotNil(t, change.Mutation)
			m := change.Mutation

			assert.Equal(t, tt.current.LeadsBalance, m.ExpectedBalance)
			assert.Equal(t, tt.wantBalance, m.ResultingBalance(tt.current.LeadsBalance))

			plan := tt.current.PlanId
			if m.PlanId != nil {
				plan = *m.PlanId
			}
			assert.Equal(t, tt.wantPlan, plan)

			if tt.slides {
				require.NotNil(t, m.PeriodStart)
				require.NotNil(t, m.PeriodEnd)
				assert.Equal(t, tt.current.CurrentPeriodEnd, *m.PeriodStart)
				assert.Equal(t, tt.current.CurrentPeriodEnd.AddDate(0, 1, 0), *m.PeriodEnd)
			} else {
				assert.Nil(t, m.PeriodEnd)
			}
			assert.NotEmpty(t, change.Note)
		})
	}
}

func TestComputeCancellationKeepsPeriodEnd(t *testing.T) {
	current := activeRow(proPlan, 1200)

	change, err := Compute(billing.OperationCancellation, current, &reference.Intent{User: customer}, Facts{Reason: "too expensive"}, now)
	require.NoError(t, err)
	require.NotNil(t, change.Mutation)

	assert.Equal(t, entity.SubscriptionStatusCancelled, *change.Mutation.Status)
	assert.Nil(t, change.Mutation.PeriodEnd)
	assert.Equal(t, 1200, change.Mutation.ResultingBalance(1200))
	require.NotNil(t, change.Extension.CancelledAt)
	assert.Equal(t, now, *change.Extension.CancelledAt)
	require.NotNil(t, change.Extension.CancellationReason)
	assert.Equal(t, "too expensive", *change.Extension.CancellationReason)
	assert.Contains(t, change.Note, "2024-06-20")
}

func TestComputeWithoutWrites(t *testing.T) {
	tests := []struct {
		name    string
		op      billing.Operation
		current *entity.Subscription
		intent  *reference.Intent
	}{
		{name: "pending", op: billing.OperationPending},
		{name: "rejected", op: billing.OperationRejected},
		{name: "cancellation without active row", op: billing.OperationCancellation, intent: &reference.Intent{User: customer}},
		{name: "lead pack without active row", op: billing.OperationLeadPackageCredit, intent: &reference.Intent{User: customer, Package: leadPack}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := Compute(tt.op, tt.current, tt.intent, Facts{TransactionId: "tx_9"}, now)
			require.NoError(t, err)
			assert.False(t, change.Writes())
			assert.NotEmpty(t, change.Note)
		})
	}
}

func TestComputeErrors(t *testing.T) {
	negative := &entity.Plan{Id: uuid.New(), Name: "Broken", LeadsIncluded: -1}

	tests := []struct {
		name    string
		op      billing.Operation
		current *entity.Subscription
		intent  *reference.Intent
		target  error
	}{
		{name: "new without plan", op: billing.OperationNewSubscription, intent: &reference.Intent{User: customer}, target: billing.ErrUnknownPlan},
		{name: "negative allowance", op: billing.OperationNewSubscription, intent: planIntent(reference.KindNew, negative), target: billing.ErrLedgerWriteFailed},
		{name: "upgrade without row", op: billing.OperationUpgrade, intent: planIntent(reference.KindUpgrade, proPlan), target: billing.ErrLedgerWriteFailed},
		{name: "renewal without row", op: billing.OperationRenewal, intent: planIntent(reference.KindRenewal, basicPlan), target: billing.ErrLedgerWriteFailed},
		{name: "lead credit without package", op: billing.OperationLeadPackageCredit, current: activeRow(basicPlan, 1), intent: &reference.Intent{User: customer}, target: billing.ErrUnknownPackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.op, tt.current, tt.intent, Facts{}, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}
