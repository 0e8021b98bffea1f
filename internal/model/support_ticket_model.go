package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SupportTicket struct {
	Id                     uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                 uuid.UUID      `gorm:"type:uuid;not null;index"`
	SubscriptionId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type                   string         `gorm:"type:varchar(50);not null"`
	Priority               string         `gorm:"type:varchar(20);not null;default:'NORMAL'"`
	Status                 string         `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	ProviderSubscriptionId *string        `gorm:"type:varchar(255)"`
	ProviderTransactionId  *string        `gorm:"type:varchar(255)"`
	Metadata               datatypes.JSON `gorm:"type:jsonb"`
	ResolutionNote         string         `gorm:"type:text"`
	ResolvedAt             *time.Time
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}
