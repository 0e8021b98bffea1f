package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/pkg/billing"
	pkgEvents "leadflow-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []pkgEvents.Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event pkgEvents.Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestPublishLedgerChange(t *testing.T) {
	sub := &entity.Subscription{
		Id:           uuid.New(),
		UserId:       uuid.New(),
		PlanId:       uuid.New(),
		Status:       entity.SubscriptionStatusActive,
		LeadsBalance: 800,
		UpdatedAt:    time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		op       billing.Operation
		wantType string
	}{
		{op: billing.OperationNewSubscription, wantType: TypeSubscriptionCreated},
		{op: billing.OperationRenewal, wantType: TypeSubscriptionRenewed},
		{op: billing.OperationUpgrade, wantType: TypeSubscriptionPlanChanged},
		{op: billing.OperationCancellation, wantType: TypeSubscriptionCancelled},
		{op: billing.OperationLeadPackageCredit, wantType: TypeLeadsCredited},
		{op: billing.OperationPending},
		{op: billing.OperationRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			sink := &recordingSink{}
			NewPublisher(sink, logger.NewNopLogger()).PublishLedgerChange(context.Background(), tt.op, sub, 300)

			if tt.wantType == "" {
				assert.Empty(t, sink.events)
				return
			}
			require.Len(t, sink.events, 1)
			evt := sink.events[0]
			assert.Equal(t, tt.wantType, evt.EventType())
			assert.Contains(t, evt.MessageID(), sub.Id.String())
			assert.Equal(t, 300, evt.Payload()["leads_delta"])
			assert.Equal(t, 800, evt.Payload()["leads_balance"])
		})
	}
}

func TestLedgerChangeMessageIdFollowsRowVersion(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, logger.NewNopLogger())
	sub := &entity.Subscription{Id: uuid.New(), UpdatedAt: time.Now()}

	p.PublishLedgerChange(context.Background(), billing.OperationRenewal, sub, 0)
	p.PublishLedgerChange(context.Background(), billing.OperationRenewal, sub, 0)
	sub.UpdatedAt = sub.UpdatedAt.Add(time.Second)
	p.PublishLedgerChange(context.Background(), billing.OperationRenewal, sub, 0)

	require.Len(t, sink.events, 3)
	assert.Equal(t, sink.events[0].MessageID(), sink.events[1].MessageID())
	assert.NotEqual(t, sink.events[0].MessageID(), sink.events[2].MessageID())
}

func TestPublishTicketOpened(t *testing.T) {
	sink := &recordingSink{err: errors.New("nats down")}
	ticket := &entity.SupportTicket{Id: uuid.New(), UserId: uuid.New(), Priority: entity.TicketPriorityHigh}

	assert.NotPanics(t, func() {
		NewPublisher(sink, logger.NewNopLogger()).PublishTicketOpened(context.Background(), ticket)
	})
	require.Len(t, sink.events, 1)
	assert.Equal(t, TypeSupportTicketOpened, sink.events[0].EventType())
	assert.Equal(t, TypeSupportTicketOpened+":"+ticket.Id.String(), sink.events[0].MessageID())
}

func TestNilSinkDisablesPublishing(t *testing.T) {
	p := NewNatsPublisher(nil, logger.NewNopLogger())
	assert.NotPanics(t, func() {
		p.PublishSweepCompleted(context.Background(), map[string]interface{}{"updated": 1})
	})
}
