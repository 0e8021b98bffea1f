package events

import (
	"context"
	"fmt"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/pkg/billing"
	pkgEvents "leadflow-be/pkg/events"
	pktNats "leadflow-be/pkg/nats"
)

const (
	TypeSubscriptionCreated     = "SUBSCRIPTION_CREATED"
	TypeSubscriptionRenewed     = "SUBSCRIPTION_RENEWED"
	TypeSubscriptionPlanChanged = "SUBSCRIPTION_PLAN_CHANGED"
	TypeSubscriptionCancelled   = "SUBSCRIPTION_CANCELLED"
	TypeLeadsCredited           = "LEADS_CREDITED"
	TypeSupportTicketOpened     = "SUPPORT_TICKET_OPENED"
	TypeLedgerSweepCompleted    = "LEDGER_SWEEP_COMPLETED"
)

// Publisher abstracts event publishing for ledger changes
type Publisher interface {
	PublishLedgerChange(ctx context.Context, op billing.Operation, sub *entity.Subscription, leadsDelta int)
	PublishTicketOpened(ctx context.Context, ticket *entity.SupportTicket)
	PublishSweepCompleted(ctx context.Context, summary map[string]interface{})
}

// EventSink is the transport; *pktNats.Publisher satisfies it.
type EventSink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher using NATS. A nil sink disables publishing.
type NatsPublisher struct {
	sink   EventSink
	logger logger.ILogger
}

func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	p := &NatsPublisher{logger: logger}
	if publisher != nil {
		p.sink = publisher
	}
	return p
}

// NewPublisher builds a publisher over any sink.
func NewPublisher(sink EventSink, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{sink: sink, logger: logger}
}

// TypeFor maps an operation to its event type. Audit-only operations have none.
func TypeFor(op billing.Operation) (string, bool) {
	switch op {
	case billing.OperationNewSubscription:
		return TypeSubscriptionCreated, true
	case billing.OperationRenewal:
		return TypeSubscriptionRenewed, true
	case billing.OperationRenewalPlanChange, billing.OperationUpgrade, billing.OperationDowngrade:
		return TypeSubscriptionPlanChanged, true
	case billing.OperationCancellation:
		return TypeSubscriptionCancelled, true
	case billing.OperationLeadPackageCredit:
		return TypeLeadsCredited, true
	default:
		return "", false
	}
}

func (p *NatsPublisher) PublishLedgerChange(ctx context.Context, op billing.Operation, sub *entity.Subscription, leadsDelta int) {
	eventType, ok := TypeFor(op)
	if !ok || sub == nil {
		return
	}
	now := time.Now()
	p.publish(ctx, pkgEvents.BaseEvent{
		Id:   fmt.Sprintf("%s:%s:%d", eventType, sub.Id, sub.UpdatedAt.UnixNano()),
		Type: eventType,
		Data: map[string]interface{}{
			"subscription_id":    sub.Id,
			"user_id":            sub.UserId,
			"plan_id":            sub.PlanId,
			"operation":          op,
			"status":             sub.Status,
			"leads_balance":      sub.LeadsBalance,
			"leads_delta":        leadsDelta,
			"current_period_end": sub.CurrentPeriodEnd,
			"entity_type":        "subscription",
			"entity_id":          sub.Id.String(),
			"occurred_at":        now,
		},
		OccurredAt: now,
	})
}

func (p *NatsPublisher) PublishTicketOpened(ctx context.Context, ticket *entity.SupportTicket) {
	now := time.Now()
	p.publish(ctx, pkgEvents.BaseEvent{
		Id:   TypeSupportTicketOpened + ":" + ticket.Id.String(),
		Type: TypeSupportTicketOpened,
		Data: map[string]interface{}{
			"ticket_id":       ticket.Id,
			"subscription_id": ticket.SubscriptionId,
			"user_id":         ticket.UserId,
			"priority":        ticket.Priority,
			"metadata":        ticket.Metadata,
			"entity_type":     "support_ticket",
			"entity_id":       ticket.Id.String(),
			"occurred_at":     now,
		},
		OccurredAt: now,
	})
}

func (p *NatsPublisher) PublishSweepCompleted(ctx context.Context, summary map[string]interface{}) {
	now := time.Now()
	data := map[string]interface{}{"occurred_at": now}
	for k, v := range summary {
		data[k] = v
	}
	p.publish(ctx, pkgEvents.BaseEvent{
		Type:       TypeLedgerSweepCompleted,
		Data:       data,
		OccurredAt: now,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
