package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/internal/tracer"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/authenticator"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/events"
	"leadflow-be/pkg/billing/ledger"
	"leadflow-be/pkg/billing/reference"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

var ErrEventNotFound = errors.New("webhook event not found")

// markTimeout bounds the write of the final event state, which runs even when the
// request context is gone.
const markTimeout = 5 * time.Second

// defaultClaimLease applies when deliveries run without a processing timeout.
const defaultClaimLease = time.Minute

type IWebhookService interface {
	// Handle runs one provider delivery through the pipeline. It never fails: the
	// outcome is reported in the response envelope.
	Handle(ctx context.Context, raw []byte) *dto.WebhookResponse
	// Replay runs a stored, unsettled event through the pipeline again.
	Replay(ctx context.Context, eventId uuid.UUID) (*dto.WebhookResult, error)
}

type webhookService struct {
	uowFactory        unitofwork.RepositoryFactory
	authenticator     *authenticator.Authenticator
	resolver          *reference.Resolver
	updater           *ledger.Updater
	effects           ledgerEffects
	logger            logger.ILogger
	processingTimeout time.Duration
}

func NewWebhookService(
	uowFactory unitofwork.RepositoryFactory,
	authenticator *authenticator.Authenticator,
	resolver *reference.Resolver,
	updater *ledger.Updater,
	cancellation *cancellation.Workflow,
	publisher events.Publisher,
	extensions IConsumerService,
	logger logger.ILogger,
	processingTimeout time.Duration,
) IWebhookService {
	return &webhookService{
		uowFactory:        uowFactory,
		authenticator:     authenticator,
		resolver:          resolver,
		updater:           updater,
		logger:            logger,
		processingTimeout: processingTimeout,
		effects: ledgerEffects{
			extensions:   extensions,
			publisher:    publisher,
			cancellation: cancellation,
			logger:       logger,
		},
	}
}

func (s *webhookService) Handle(ctx context.Context, raw []byte) *dto.WebhookResponse {
	if s.processingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.processingTimeout)
		defer cancel()
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.logger.Warn("WEBHOOK", "Unparseable notification", map[string]interface{}{
			"error": err.Error(),
			"size":  len(raw),
		})
		return &dto.WebhookResponse{Success: false, Message: "malformed payload"}
	}
	n := req.ToNotification(raw)

	s.logger.Info("WEBHOOK", "Notification received", map[string]interface{}{
		"event_key":           n.EventKey(),
		"transaction_status":  n.TransactionStatus,
		"subscription_status": n.SubscriptionStatus,
	})

	if err := s.authenticator.Authenticate(n); err != nil {
		if op, ok := auditOperation(err, n); ok {
			return s.recordAudit(ctx, n, op)
		}
		s.logger.Warn("WEBHOOK", "Notification rejected", map[string]interface{}{
			"event_key": n.EventKey(),
			"error":     err.Error(),
		})
		return &dto.WebhookResponse{Success: false, Message: err.Error()}
	}

	event, err := s.register(ctx, n)
	if errors.Is(err, billing.ErrEventInFlight) {
		return inFlightResponse(event)
	}
	if errors.Is(err, billing.ErrDuplicateEvent) {
		s.logger.Info("WEBHOOK", "Duplicate event acknowledged", map[string]interface{}{
			"event_key": n.EventKey(),
		})
		return &dto.WebhookResponse{
			Success: true,
			Message: "event already processed",
			Result: &dto.WebhookResult{
				EventId:   event.ProviderEventId,
				Operation: event.Operation,
				Duplicate: true,
				Note:      event.Note,
			},
		}
	}
	if err != nil {
		s.logger.Error("WEBHOOK", "Failed to register event", map[string]interface{}{
			"event_key": n.EventKey(),
			"error":     err.Error(),
		})
		return &dto.WebhookResponse{Success: false, Message: "event could not be recorded"}
	}

	result, err := s.run(ctx, event, n)
	if err != nil {
		return &dto.WebhookResponse{Success: false, Message: err.Error(), Result: result}
	}
	return &dto.WebhookResponse{Success: true, Message: "event processed", Result: result}
}

func (s *webhookService) Replay(ctx context.Context, eventId uuid.UUID) (*dto.WebhookResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	event, err := uow.WebhookEventRepository().FindOne(ctx, specification.ByID{ID: eventId})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.Settled() {
		return nil, fmt.Errorf("%w: %s", billing.ErrDuplicateEvent, event.ProviderEventId)
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(event.Payload, &req); err != nil {
		return nil, fmt.Errorf("stored payload is not a notification: %w", err)
	}
	n := req.ToNotification(event.Payload)
	if err := s.authenticator.Authenticate(n); err != nil {
		return nil, err
	}
	claimed, err := uow.WebhookEventRepository().ClaimAttempt(ctx, event.Id, s.claimExpiry())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s", billing.ErrEventInFlight, event.ProviderEventId)
	}

	s.logger.Info("WEBHOOK", "Replaying event", map[string]interface{}{
		"event_id":  event.Id,
		"event_key": event.ProviderEventId,
		"attempts":  event.Attempts + 1,
	})
	return s.run(ctx, event, n)
}

// register claims the event key. A settled event yields ErrDuplicateEvent together
// with the stored row. An unsettled one is handed back for another attempt only when
// no live attempt holds it, otherwise ErrEventInFlight is returned.
func (s *webhookService) register(ctx context.Context, n billing.Notification) (*entity.WebhookEvent, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).WebhookEventRepository()

	stored, created, err := repo.CreateIfNotExists(ctx, newEventRow(n))
	if err != nil {
		return nil, err
	}
	if created {
		return stored, nil
	}
	if stored.Settled() {
		return stored, billing.ErrDuplicateEvent
	}
	claimed, err := repo.ClaimAttempt(ctx, stored.Id, s.claimExpiry())
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Info("WEBHOOK", "Event held by another attempt", map[string]interface{}{
			"event_key": stored.ProviderEventId,
			"attempts":  stored.Attempts,
		})
		return stored, billing.ErrEventInFlight
	}
	return stored, nil
}

// claimExpiry is the cutoff before which a claim is treated as abandoned. A live
// attempt ends within the processing timeout plus the final mark.
func (s *webhookService) claimExpiry() time.Time {
	lease := defaultClaimLease
	if s.processingTimeout > 0 {
		lease = s.processingTimeout + markTimeout
	}
	return time.Now().Add(-lease)
}

func inFlightResponse(event *entity.WebhookEvent) *dto.WebhookResponse {
	return &dto.WebhookResponse{
		Success: true,
		Message: "event already in progress",
		Result:  &dto.WebhookResult{EventId: event.ProviderEventId, Duplicate: true},
	}
}

// run resolves, classifies and applies the event, records the outcome on the event
// row and fires the post-commit side effects.
func (s *webhookService) run(ctx context.Context, event *entity.WebhookEvent, n billing.Notification) (*dto.WebhookResult, error) {
	result := &dto.WebhookResult{EventId: event.ProviderEventId}

	outcome, err := s.apply(ctx, n)
	if err != nil {
		s.markProcessed(ctx, event, entity.WebhookOutcome{ErrorMessage: err.Error()})
		s.logger.Error("WEBHOOK", "Event failed", map[string]interface{}{
			"event_key": event.ProviderEventId,
			"error":     err.Error(),
		})
		return result, err
	}

	s.markProcessed(ctx, event, entity.WebhookOutcome{
		Operation: outcome.Operation.String(),
		Note:      outcome.Note,
	})
	s.effects.dispatch(ctx, outcome)

	result.Operation = outcome.Operation.String()
	result.Note = outcome.Note
	result.LeadsDelta = outcome.LeadsDelta()
	return result, nil
}

func (s *webhookService) apply(ctx context.Context, n billing.Notification) (outcome *ledger.Outcome, err error) {
	ctx, span := tracer.Start(ctx, "webhook.apply", attribute.String("event_key", n.EventKey()))
	defer func() { tracer.End(span, err) }()

	intent, err := s.resolver.Resolve(ctx, s.uowFactory.NewUnitOfWork(ctx), n)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("resolve.source", string(intent.Source)),
		attribute.String("user_id", intent.User.Id.String()),
	)

	lifecycle := billing.LifecycleNone
	if n.IsLifecycleEvent() {
		lifecycle = n.Lifecycle()
	}

	return s.updater.Apply(ctx, s.uowFactory.NewUnitOfWork(ctx), ledger.Request{
		Intent:        intent,
		Lifecycle:     lifecycle,
		PaymentStatus: n.PaymentStatus(),
		Facts: ledger.Facts{
			TransactionId:          n.TransactionId,
			ProviderSubscriptionId: n.SubscriptionId,
			Reason:                 n.CancellationReason,
		},
	})
}

// recordAudit stores an unpaid notification with its audit note and no ledger
// mutation.
func (s *webhookService) recordAudit(ctx context.Context, n billing.Notification, op billing.Operation) *dto.WebhookResponse {
	event, err := s.register(ctx, n)
	if errors.Is(err, billing.ErrEventInFlight) {
		return inFlightResponse(event)
	}
	if errors.Is(err, billing.ErrDuplicateEvent) {
		return &dto.WebhookResponse{
			Success: true,
			Message: "event already processed",
			Result:  &dto.WebhookResult{EventId: event.ProviderEventId, Operation: event.Operation, Duplicate: true},
		}
	}
	if err != nil {
		s.logger.Error("WEBHOOK", "Failed to register event", map[string]interface{}{
			"event_key": n.EventKey(),
			"error":     err.Error(),
		})
		return &dto.WebhookResponse{Success: false, Message: "event could not be recorded"}
	}

	change, err := ledger.Compute(op, nil, nil, ledger.Facts{}, time.Now())
	if err != nil {
		s.markProcessed(ctx, event, entity.WebhookOutcome{ErrorMessage: err.Error()})
		return &dto.WebhookResponse{Success: false, Message: err.Error()}
	}
	s.markProcessed(ctx, event, entity.WebhookOutcome{Operation: op.String(), Note: change.Note})

	s.logger.Info("WEBHOOK", "Unpaid notification recorded", map[string]interface{}{
		"event_key": event.ProviderEventId,
		"operation": op,
	})
	return &dto.WebhookResponse{
		Success: true,
		Message: "event recorded",
		Result:  &dto.WebhookResult{EventId: event.ProviderEventId, Operation: op.String(), Note: change.Note},
	}
}

// markProcessed must land even when the delivery context expired, otherwise the
// event would look like a crash and be retried.
func (s *webhookService) markProcessed(ctx context.Context, event *entity.WebhookEvent, outcome entity.WebhookOutcome) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(markCtx)
	if err := uow.WebhookEventRepository().MarkProcessed(markCtx, event.Id, outcome); err != nil {
		s.logger.Error("WEBHOOK", "Failed to mark event processed", map[string]interface{}{
			"event_id": event.Id,
			"error":    err.Error(),
		})
	}
}

// auditOperation reports whether a rejection only concerns an unpaid status, which
// is recorded rather than dropped.
func auditOperation(err error, n billing.Notification) (billing.Operation, bool) {
	var rejection *billing.RejectionError
	if !errors.As(err, &rejection) || rejection.Condition != billing.ConditionStatus {
		return "", false
	}
	switch n.PaymentStatus() {
	case billing.PaymentStatusPending:
		return billing.OperationPending, true
	case billing.PaymentStatusRejected:
		return billing.OperationRejected, true
	default:
		return "", false
	}
}

func newEventRow(n billing.Notification) *entity.WebhookEvent {
	now := time.Now()
	status := n.TransactionStatus
	if n.IsLifecycleEvent() {
		status = n.SubscriptionStatus
	}
	return &entity.WebhookEvent{
		Id:              uuid.New(),
		ProviderEventId: n.EventKey(),
		Action:          n.Action(),
		Status:          status,
		Payload:         n.Raw,
		Attempts:        1,
		ClaimedAt:       &now,
	}
}
