package billing

// Operation is the classification of one authenticated event.
type Operation string

const (
	OperationNewSubscription   Operation = "new_subscription"
	OperationRenewal           Operation = "renewal"
	OperationRenewalPlanChange Operation = "renewal_plan_change"
	OperationUpgrade           Operation = "upgrade"
	OperationDowngrade         Operation = "downgrade"
	OperationCancellation      Operation = "cancellation"
	OperationLeadPackageCredit Operation = "lead_package_credit"
	OperationRejected          Operation = "rejected"
	OperationPending           Operation = "pending"
)

var Operations = []Operation{
	OperationNewSubscription,
	OperationRenewal,
	OperationRenewalPlanChange,
	OperationUpgrade,
	OperationDowngrade,
	OperationCancellation,
	OperationLeadPackageCredit,
	OperationRejected,
	OperationPending,
}

func (o Operation) String() string {
	return string(o)
}

// IsAuditOnly reports whether the operation never touches the ledger.
func (o Operation) IsAuditOnly() bool {
	return o == OperationRejected || o == OperationPending
}
