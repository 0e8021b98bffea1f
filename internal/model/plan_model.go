package model

import "github.com/google/uuid"

type Plan struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string    `gorm:"type:varchar(255);not null"`
	Price            float64   `gorm:"type:decimal(10,2);not null"`
	LeadsIncluded    int       `gorm:"not null;default:0"`
	ProviderPlanCode *string   `gorm:"type:varchar(255);uniqueIndex"`
	IsActive         bool      `gorm:"default:true"`
	SortOrder        int       `gorm:"default:0"`
}

func (Plan) TableName() string {
	return "plans"
}

type LeadPackage struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Price    float64   `gorm:"type:decimal(10,2);not null"`
	Leads    int       `gorm:"not null"`
	IsActive bool      `gorm:"default:true"`
}

func (LeadPackage) TableName() string {
	return "lead_packages"
}
