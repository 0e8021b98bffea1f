package service

import (
	"context"
	"testing"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerPatchesExtendedColumns(t *testing.T) {
	f := newFixture(t)
	row := f.subscribe(f.basic, 100, "")

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(pubSub, pubSub, "ledger.extension", f.store, f.log)
	require.NoError(t, consumer.Consume(ctx))

	txId := "tx_123"
	deadline := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, consumer.PublishExtension(ctx, row.Id, entity.SubscriptionExtension{
		ProviderTransactionId: &txId,
		RefundDeadline:        &deadline,
	}))

	assert.Eventually(t, func() bool {
		stored, err := f.store.NewUnitOfWork(ctx).SubscriptionRepository().FindOne(ctx, specification.ByID{ID: row.Id})
		return err == nil && stored.ProviderTransactionId != nil && *stored.ProviderTransactionId == txId &&
			stored.RefundDeadline != nil && stored.RefundDeadline.Equal(deadline)
	}, time.Second, 10*time.Millisecond)
}

func TestConsumerSkipsEmptyPatch(t *testing.T) {
	f := newFixture(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "ledger.extension")
	require.NoError(t, err)

	consumer := NewConsumerService(pubSub, pubSub, "ledger.extension", f.store, f.log)
	require.NoError(t, consumer.PublishExtension(ctx, f.user.Id, entity.SubscriptionExtension{}))

	select {
	case msg := <-messages:
		msg.Ack()
		t.Fatalf("unexpected message %s", msg.UUID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConsumerAcksMalformedMessages(t *testing.T) {
	f := newFixture(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(pubSub, pubSub, "ledger.extension", f.store, f.log)
	require.NoError(t, consumer.Consume(ctx))

	done := make(chan error, 1)
	go func() {
		done <- pubSub.Publish("ledger.extension", message.NewMessage(watermill.NewUUID(), []byte("not json")))
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("malformed message was never acked")
	}
}
