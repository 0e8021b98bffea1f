package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription holds the ledger. One active row per user is enforced by the
// partial unique index ux_subscriptions_user_active created in cmd/migrate.
type Subscription struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId             uuid.UUID `gorm:"type:uuid;not null;index"`
	Status             string    `gorm:"type:varchar(50);not null;index"`
	LeadsBalance       int       `gorm:"not null;default:0"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null"`

	FirstPaymentDate       *time.Time
	RefundDeadline         *time.Time
	ProviderTransactionId  *string `gorm:"type:varchar(255)"`
	ProviderSubscriptionId *string `gorm:"type:varchar(255);index"`
	CancelledAt            *time.Time
	CancellationReason     *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
