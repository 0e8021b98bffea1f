package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WebhookEvent struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProviderEventId string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Action          string         `gorm:"type:varchar(100)"`
	Status          string         `gorm:"type:varchar(100)"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	Processed       bool           `gorm:"default:false;index"`
	ProcessedAt     *time.Time
	Operation       string    `gorm:"type:varchar(50)"`
	Note            string    `gorm:"type:text"`
	ErrorMessage    string    `gorm:"type:text"`
	Attempts        int       `gorm:"default:0"`
	ClaimedAt       *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
