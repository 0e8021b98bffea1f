package contract

import (
	"context"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

type WebhookEventRepository interface {
	// CreateIfNotExists inserts the event unless provider_event_id is taken.
	// It always returns the stored row and whether this call created it.
	CreateIfNotExists(ctx context.Context, event *entity.WebhookEvent) (stored *entity.WebhookEvent, created bool, err error)
	// ClaimAttempt starts another attempt on an unsettled event whose previous claim
	// was released or taken before staleBefore. claimed is false when the event is
	// settled or another attempt still holds it.
	ClaimAttempt(ctx context.Context, id uuid.UUID, staleBefore time.Time) (claimed bool, err error)
	MarkProcessed(ctx context.Context, id uuid.UUID, outcome entity.WebhookOutcome) error

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WebhookEvent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WebhookEvent, error)
}
