package entity

import "github.com/google/uuid"

// Plan is a catalog row. The engine only reads plans.
type Plan struct {
	Id               uuid.UUID
	Name             string
	Price            float64 // monthly
	LeadsIncluded    int
	ProviderPlanCode *string
	IsActive         bool
	SortOrder        int
}

// LeadPackage is a one-off credit pack sold to subscribers.
type LeadPackage struct {
	Id       uuid.UUID
	Name     string
	Price    float64
	Leads    int
	IsActive bool
}
