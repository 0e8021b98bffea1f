package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadflow-be/internal/pkg/logger"
	"leadflow-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher handles sending events to the NATS bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher connects and makes sure the event stream exists. A stream that cannot
// be created is only logged; the server may not be ready yet.
func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, js, err := connect(url, "leadflow-publisher")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Limits retention: the ticket mailer and external consumers read the same subjects
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		// a ledger change republished after a crash carries the same message id
		Duplicates: 2 * time.Hour,
	})
	if err != nil {
		log.Warn("EVENTS", "Failed to ensure stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}

	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends an event to NATS on events.<TYPE>.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	var opts []jetstream.PublishOpt
	if id := event.MessageID(); id != "" {
		opts = append(opts, jetstream.WithMsgID(id))
	}
	if _, err = p.js.Publish(ctx, subject, data, opts...); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

func Subject(eventType string) string {
	return "events." + eventType
}
