package ledger

import (
	"fmt"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/reference"
)

const RefundWindow = 7 * 24 * time.Hour

// Change is the effect of one operation on the ledger. At most one of Create and
// Mutation is set; both nil means the operation only leaves an audit note.
type Change struct {
	Operation billing.Operation
	Create    *entity.Subscription
	Mutation  *entity.LedgerMutation
	Extension entity.SubscriptionExtension
	Note      string
}

func (c Change) Writes() bool {
	return c.Create != nil || c.Mutation != nil
}

// Facts are the provider identifiers and free text carried by the event.
type Facts struct {
	TransactionId          string
	ProviderSubscriptionId string
	Reason                 string
}

// Compute derives the change for op from the active row (nil when none). It never
// touches storage.
func Compute(op billing.Operation, current *entity.Subscription, intent *reference.Intent, facts Facts, now time.Time) (Change, error) {
	change := Change{Operation: op}
	if txId := facts.TransactionId; txId != "" {
		change.Extension.ProviderTransactionId = &txId
	}
	if subId := facts.ProviderSubscriptionId; subId != "" {
		change.Extension.ProviderSubscriptionId = &subId
	}

	switch op {
	case billing.OperationNewSubscription:
		plan, err := requirePlan(intent)
		if err != nil {
			return Change{}, err
		}
		if plan.LeadsIncluded < 0 {
			return Change{}, fmt.Errorf("%w: plan %s has negative leads", billing.ErrLedgerWriteFailed, plan.Id)
		}
		refundDeadline := now.Add(RefundWindow)
		change.Create = &entity.Subscription{
			UserId:             intent.User.Id,
			PlanId:             plan.Id,
			Status:             entity.SubscriptionStatusActive,
			LeadsBalance:       plan.LeadsIncluded,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		}
		change.Extension.FirstPaymentDate = &now
		change.Extension.RefundDeadline = &refundDeadline
		change.Note = fmt.Sprintf("new subscription on %s with %d leads", plan.Name, plan.LeadsIncluded)

	case billing.OperationRenewal:
		if current == nil {
			return Change{}, missingRow(op)
		}
		plan, err := requirePlan(intent)
		if err != nil {
			return Change{}, err
		}
		start, end := slide(current)
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			BalanceOp:       entity.BalanceSet,
			BalanceValue:    plan.LeadsIncluded,
			PeriodStart:     &start,
			PeriodEnd:       &end,
		}
		change.Note = fmt.Sprintf("renewal resets balance %d -> %d", current.LeadsBalance, plan.LeadsIncluded)

	case billing.OperationRenewalPlanChange:
		if current == nil {
			return Change{}, missingRow(op)
		}
		plan, err := requirePlan(intent)
		if err != nil {
			return Change{}, err
		}
		start, end := slide(current)
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			BalanceOp:       entity.BalanceAdd,
			BalanceValue:    plan.LeadsIncluded,
			PlanId:          &plan.Id,
			PeriodStart:     &start,
			PeriodEnd:       &end,
		}
		change.Note = fmt.Sprintf("renewal onto %s adds %d leads", plan.Name, plan.LeadsIncluded)

	case billing.OperationUpgrade:
		if current == nil {
			return Change{}, missingRow(op)
		}
		plan, err := requirePlan(intent)
		if err != nil {
			return Change{}, err
		}
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			BalanceOp:       entity.BalanceAdd,
			BalanceValue:    plan.LeadsIncluded,
			PlanId:          &plan.Id,
		}
		change.Note = fmt.Sprintf("upgrade to %s adds %d leads", plan.Name, plan.LeadsIncluded)

	case billing.OperationDowngrade:
		if current == nil {
			return Change{}, missingRow(op)
		}
		plan, err := requirePlan(intent)
		if err != nil {
			return Change{}, err
		}
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			PlanId:          &plan.Id,
		}
		change.Note = fmt.Sprintf("downgrade to %s keeps balance %d", plan.Name, current.LeadsBalance)

	case billing.OperationCancellation:
		if current == nil {
			change.Note = "cancellation ignored: no active subscription"
			return change, nil
		}
		cancelled := entity.SubscriptionStatusCancelled
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			Status:          &cancelled,
		}
		change.Extension.CancelledAt = &now
		if facts.Reason != "" {
			reason := facts.Reason
			change.Extension.CancellationReason = &reason
		}
		change.Note = fmt.Sprintf("cancelled, access until %s", current.CurrentPeriodEnd.Format(time.RFC3339))

	case billing.OperationLeadPackageCredit:
		if intent == nil || intent.Package == nil {
			return Change{}, fmt.Errorf("%w: lead credit without package", billing.ErrUnknownPackage)
		}
		if intent.Package.Leads < 0 {
			return Change{}, fmt.Errorf("%w: package %s has negative leads", billing.ErrLedgerWriteFailed, intent.Package.Id)
		}
		if current == nil {
			change.Note = fmt.Sprintf("lead package %s not credited: no active subscription", intent.Package.Name)
			return change, nil
		}
		change.Mutation = &entity.LedgerMutation{
			ExpectedBalance: current.LeadsBalance,
			BalanceOp:       entity.BalanceAdd,
			BalanceValue:    intent.Package.Leads,
		}
		// a pack purchase must not overwrite the subscription's own provider ids
		change.Extension = entity.SubscriptionExtension{}
		change.Note = fmt.Sprintf("lead package %s adds %d leads", intent.Package.Name, intent.Package.Leads)

	case billing.OperationPending:
		change.Extension = entity.SubscriptionExtension{}
		change.Note = "payment pending, no ledger change"

	case billing.OperationRejected:
		change.Extension = entity.SubscriptionExtension{}
		change.Note = "payment rejected, no ledger change"

	default:
		return Change{}, fmt.Errorf("unhandled operation %q", op)
	}
	return change, nil
}

func requirePlan(intent *reference.Intent) (*entity.Plan, error) {
	if intent == nil || intent.Plan == nil {
		return nil, billing.ErrUnknownPlan
	}
	if intent.Plan.LeadsIncluded < 0 {
		return nil, fmt.Errorf("%w: plan %s has negative leads", billing.ErrLedgerWriteFailed, intent.Plan.Id)
	}
	return intent.Plan, nil
}

func missingRow(op billing.Operation) error {
	return fmt.Errorf("%w: %s needs an active subscription", billing.ErrLedgerWriteFailed, op)
}

// slide moves the billing period one month forward from the previous end.
func slide(current *entity.Subscription) (time.Time, time.Time) {
	start := current.CurrentPeriodEnd
	return start, start.AddDate(0, 1, 0)
}
