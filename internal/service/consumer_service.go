// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IConsumerService patches the extended ledger columns after the core write has
// committed. Patches are best-effort: a failure is logged and dropped.
type IConsumerService interface {
	PublishExtension(ctx context.Context, subscriptionId uuid.UUID, extension entity.SubscriptionExtension) error
	Consume(ctx context.Context) error
}

type consumerService struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	publisher message.Publisher,
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		publisher:  publisher,
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (cs *consumerService) PublishExtension(ctx context.Context, subscriptionId uuid.UUID, extension entity.SubscriptionExtension) error {
	if extension.IsEmpty() {
		return nil
	}
	payload, err := json.Marshal(dto.ExtensionPatchMessage{
		SubscriptionId: subscriptionId,
		Extension:      extension,
	})
	if err != nil {
		return fmt.Errorf("marshal extension patch: %w", err)
	}
	return cs.publisher.Publish(cs.topicName, message.NewMessage(watermill.NewUUID(), payload))
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// every outcome acks: the core row is already correct and the sweep never
	// depends on these columns
	defer msg.Ack()

	var payload dto.ExtensionPatchMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("LEDGER", "Invalid extension patch message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubscriptionRepository().PatchExtension(ctx, payload.SubscriptionId, payload.Extension); err != nil {
		cs.logger.Warn("LEDGER", "Extended columns not written", map[string]interface{}{
			"subscription_id": payload.SubscriptionId,
			"error":           err.Error(),
		})
		return
	}

	cs.logger.Debug("LEDGER", "Extended columns written", map[string]interface{}{
		"subscription_id": payload.SubscriptionId,
	})
}
