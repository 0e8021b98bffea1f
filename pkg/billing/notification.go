package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusUnknown  PaymentStatus = "unknown"
)

type LifecycleSignal string

const (
	LifecycleNone      LifecycleSignal = ""
	LifecycleActive    LifecycleSignal = "active"
	LifecycleCancelled LifecycleSignal = "cancelled"
	LifecyclePaused    LifecycleSignal = "paused"
	LifecycleExpired   LifecycleSignal = "expired"
)

// Notification is the provider payload after parsing, independent of transport.
type Notification struct {
	TransactionId      string
	OrderId            string
	StatusCode         string
	TransactionStatus  string
	FraudStatus        string
	GrossAmount        string
	SignatureKey       string
	PaymentType        string
	Correlation        string
	PlanCode           string
	ItemIds            []string
	SubscriptionId     string
	SubscriptionStatus string
	PayerEmail         string
	ChargeCount        int
	Test               bool
	LiveMode           *bool
	CancellationReason string
	Raw                []byte
}

// Amount parses the gross amount. ok is false for missing or malformed values.
func (n Notification) Amount() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(n.GrossAmount), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PaymentStatus normalizes the provider transaction status.
func (n Notification) PaymentStatus() PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(n.TransactionStatus)) {
	case "settlement", "approved", "paid":
		return PaymentStatusApproved
	case "capture":
		fraud := strings.ToLower(strings.TrimSpace(n.FraudStatus))
		switch fraud {
		case "", "accept":
			return PaymentStatusApproved
		case "challenge":
			return PaymentStatusPending
		default:
			return PaymentStatusRejected
		}
	case "pending", "authorize", "in_process":
		return PaymentStatusPending
	case "deny", "cancel", "expire", "failure", "refund", "partial_refund", "chargeback", "rejected":
		return PaymentStatusRejected
	default:
		return PaymentStatusUnknown
	}
}

// Lifecycle normalizes the subscription status signal, if any.
func (n Notification) Lifecycle() LifecycleSignal {
	switch strings.ToLower(strings.TrimSpace(n.SubscriptionStatus)) {
	case "":
		return LifecycleNone
	case "active", "authorized":
		return LifecycleActive
	case "cancelled", "canceled", "inactive":
		return LifecycleCancelled
	case "paused", "pending":
		return LifecyclePaused
	case "expired", "finished":
		return LifecycleExpired
	default:
		return LifecycleNone
	}
}

// IsLifecycleEvent reports whether the notification is a subscription status change
// rather than a payment.
func (n Notification) IsLifecycleEvent() bool {
	return n.Lifecycle() != LifecycleNone && strings.TrimSpace(n.TransactionStatus) == ""
}

// IsRecurringCharge reports a charge the provider made on its own schedule.
func (n Notification) IsRecurringCharge() bool {
	return n.ChargeCount > 1 || (n.SubscriptionId != "" && n.Correlation == "")
}

// EventKey is the idempotency key of the notification. Capture and settlement of
// one transaction share a key.
func (n Notification) EventKey() string {
	if n.IsLifecycleEvent() && n.SubscriptionId != "" {
		return n.SubscriptionId + ":" + string(n.Lifecycle())
	}
	if id := strings.TrimSpace(n.TransactionId); id != "" {
		return id + ":" + string(n.PaymentStatus())
	}
	sum := sha256.Sum256(n.Raw)
	return "hash:" + hex.EncodeToString(sum[:])
}

// Action labels the stored event row.
func (n Notification) Action() string {
	if n.IsLifecycleEvent() {
		return "subscription." + string(n.Lifecycle())
	}
	return "payment." + string(n.PaymentStatus())
}
