package classifier

import (
	"leadflow-be/internal/entity"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/reference"
)

// Input is everything the classification depends on. Current is the user's active
// ledger row (nil when none) and CurrentPlan its plan.
type Input struct {
	Lifecycle     billing.LifecycleSignal
	PaymentStatus billing.PaymentStatus
	Intent        *reference.Intent
	Current       *entity.Subscription
	CurrentPlan   *entity.Plan
}

// Classify maps ledger state and intent to exactly one operation. Unpaid payments
// are settled first so nothing unpaid is ever credited, lead packs included.
func Classify(in Input) billing.Operation {
	isLifecycle := in.Lifecycle != billing.LifecycleNone

	if !isLifecycle {
		switch in.PaymentStatus {
		case billing.PaymentStatusApproved:
		case billing.PaymentStatusPending:
			return billing.OperationPending
		default:
			return billing.OperationRejected
		}
	}

	if isLifecycle {
		if in.Lifecycle == billing.LifecycleCancelled {
			return billing.OperationCancellation
		}
		// status signals carry no payment, whatever token they name; the sweep
		// reconciles them
		return billing.OperationPending
	}

	if in.Intent != nil && in.Intent.IsLeadPackage() {
		return billing.OperationLeadPackageCredit
	}

	if !in.Current.IsActive() {
		return billing.OperationNewSubscription
	}

	if in.Intent == nil || in.Intent.Plan == nil || in.Intent.Plan.Id == in.Current.PlanId {
		return billing.OperationRenewal
	}

	if in.Intent.IsRenewal() {
		return billing.OperationRenewalPlanChange
	}

	if in.CurrentPlan == nil {
		return billing.OperationUpgrade
	}
	switch {
	case in.Intent.Plan.Price > in.CurrentPlan.Price:
		return billing.OperationUpgrade
	case in.Intent.Plan.Price < in.CurrentPlan.Price:
		return billing.OperationDowngrade
	default:
		return billing.OperationRenewalPlanChange
	}
}
