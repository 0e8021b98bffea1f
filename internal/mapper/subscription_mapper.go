package mapper

import (
	"leadflow-be/internal/entity"
	"leadflow-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                     s.Id,
		UserId:                 s.UserId,
		PlanId:                 s.PlanId,
		Status:                 entity.SubscriptionStatus(s.Status),
		LeadsBalance:           s.LeadsBalance,
		CurrentPeriodStart:     s.CurrentPeriodStart,
		CurrentPeriodEnd:       s.CurrentPeriodEnd,
		FirstPaymentDate:       s.FirstPaymentDate,
		RefundDeadline:         s.RefundDeadline,
		ProviderTransactionId:  s.ProviderTransactionId,
		ProviderSubscriptionId: s.ProviderSubscriptionId,
		CancelledAt:            s.CancelledAt,
		CancellationReason:     s.CancellationReason,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
}

// ToCoreModel maps only the core ledger columns. Extended columns travel
// through ExtensionColumns so a schema lagging behind never blocks the core write.
func (m *SubscriptionMapper) ToCoreModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                 s.Id,
		UserId:             s.UserId,
		PlanId:             s.PlanId,
		Status:             string(s.Status),
		LeadsBalance:       s.LeadsBalance,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ExtensionColumns returns the column updates for the non-nil extension fields.
func (m *SubscriptionMapper) ExtensionColumns(e entity.SubscriptionExtension) map[string]interface{} {
	columns := make(map[string]interface{})
	if e.FirstPaymentDate != nil {
		columns["first_payment_date"] = *e.FirstPaymentDate
	}
	if e.RefundDeadline != nil {
		columns["refund_deadline"] = *e.RefundDeadline
	}
	if e.ProviderTransactionId != nil {
		columns["provider_transaction_id"] = *e.ProviderTransactionId
	}
	if e.ProviderSubscriptionId != nil {
		columns["provider_subscription_id"] = *e.ProviderSubscriptionId
	}
	if e.CancelledAt != nil {
		columns["cancelled_at"] = *e.CancelledAt
	}
	if e.CancellationReason != nil {
		columns["cancellation_reason"] = *e.CancellationReason
	}
	return columns
}
