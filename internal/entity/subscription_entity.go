// FILE: internal/entity/subscription_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
)

// Subscription is the ledger row: plan assignment, leads balance and billing period
// for one user. Rows are never deleted, older rows stay as history.
type Subscription struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	PlanId             uuid.UUID
	Status             SubscriptionStatus
	LeadsBalance       int
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	// Extended fields, written by a separate best-effort patch
	FirstPaymentDate       *time.Time
	RefundDeadline         *time.Time
	ProviderTransactionId  *string
	ProviderSubscriptionId *string
	CancelledAt            *time.Time
	CancellationReason     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}

// SubscriptionExtension holds the optional columns of a ledger row. A nil field means
// "leave unchanged".
type SubscriptionExtension struct {
	FirstPaymentDate       *time.Time `json:"first_payment_date,omitempty"`
	RefundDeadline         *time.Time `json:"refund_deadline,omitempty"`
	ProviderTransactionId  *string    `json:"provider_transaction_id,omitempty"`
	ProviderSubscriptionId *string    `json:"provider_subscription_id,omitempty"`
	CancelledAt            *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason     *string    `json:"cancellation_reason,omitempty"`
}

func (e SubscriptionExtension) IsEmpty() bool {
	return e.FirstPaymentDate == nil &&
		e.RefundDeadline == nil &&
		e.ProviderTransactionId == nil &&
		e.ProviderSubscriptionId == nil &&
		e.CancelledAt == nil &&
		e.CancellationReason == nil
}

// ApplyTo copies the non-nil fields onto sub.
func (e SubscriptionExtension) ApplyTo(sub *Subscription) {
	if e.FirstPaymentDate != nil {
		sub.FirstPaymentDate = e.FirstPaymentDate
	}
	if e.RefundDeadline != nil {
		sub.RefundDeadline = e.RefundDeadline
	}
	if e.ProviderTransactionId != nil {
		sub.ProviderTransactionId = e.ProviderTransactionId
	}
	if e.ProviderSubscriptionId != nil {
		sub.ProviderSubscriptionId = e.ProviderSubscriptionId
	}
	if e.CancelledAt != nil {
		sub.CancelledAt = e.CancelledAt
	}
	if e.CancellationReason != nil {
		sub.CancellationReason = e.CancellationReason
	}
}

type BalanceOp int

const (
	BalanceKeep BalanceOp = iota
	BalanceSet
	BalanceAdd
)

// LedgerMutation describes a single conditional write against a ledger row.
// ExpectedBalance is the balance observed under the row lock; the write only
// applies while the stored balance still equals it.
type LedgerMutation struct {
	ExpectedBalance int
	BalanceOp       BalanceOp
	BalanceValue    int

	PlanId      *uuid.UUID
	Status      *SubscriptionStatus
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

func (m LedgerMutation) IsNoop() bool {
	return m.BalanceOp == BalanceKeep && m.PlanId == nil && m.Status == nil &&
		m.PeriodStart == nil && m.PeriodEnd == nil
}

// ResultingBalance returns the balance the row holds after the mutation, given the
// balance it held before.
func (m LedgerMutation) ResultingBalance(prior int) int {
	switch m.BalanceOp {
	case BalanceSet:
		return m.BalanceValue
	case BalanceAdd:
		return prior + m.BalanceValue
	default:
		return prior
	}
}
