package contract

import (
	"context"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	// Create inserts the core columns only.
	Create(ctx context.Context, subscription *entity.Subscription) error

	// ApplyMutation performs one conditional write. It returns ErrStaleRow when the
	// stored balance no longer equals mutation.ExpectedBalance.
	ApplyMutation(ctx context.Context, id uuid.UUID, mutation entity.LedgerMutation) (*entity.Subscription, error)

	// PatchExtension writes the optional columns.
	PatchExtension(ctx context.Context, id uuid.UUID, extension entity.SubscriptionExtension) error

	// UpdateStatusIfUnchanged writes status (and period end when given) only while
	// updated_at still equals observedUpdatedAt.
	UpdateStatusIfUnchanged(ctx context.Context, id uuid.UUID, observedUpdatedAt time.Time, status entity.SubscriptionStatus, periodEnd *time.Time) (bool, error)

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)
}
