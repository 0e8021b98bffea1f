package specification

import (
	"gorm.io/gorm"
)

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ActiveSubscription struct{}

func (s ActiveSubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

type ByProviderSubscriptionID struct {
	ProviderSubscriptionID string
}

func (s ByProviderSubscriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_subscription_id = ?", s.ProviderSubscriptionID)
}

type ByProviderPlanCode struct {
	Code string
}

func (s ByProviderPlanCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_plan_code = ?", s.Code)
}

type ActiveCatalogEntry struct{}

func (s ActiveCatalogEntry) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// UnsettledWebhookEvent matches events that never finished or finished with an error.
type UnsettledWebhookEvent struct{}

func (s UnsettledWebhookEvent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("processed = ? OR error_message <> ''", false)
}
