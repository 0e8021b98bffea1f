package authenticator

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/reference"
)

var placeholderIds = map[string]struct{}{
	"":          {},
	"0":         {},
	"null":      {},
	"undefined": {},
	"test":      {},
	"123456":    {},
}

// Authenticator decides whether a notification is a genuine, live provider event.
type Authenticator struct {
	serverKey string
}

// NewAuthenticator builds an authenticator. An empty serverKey disables the
// signature check.
func NewAuthenticator(serverKey string) *Authenticator {
	return &Authenticator{
		serverKey: serverKey,
	}
}

// Authenticate returns nil for an accepted notification, otherwise a
// *billing.RejectionError wrapping billing.ErrNotARealPayment. The status check runs
// last, so a ConditionStatus rejection means every other check passed.
func (a *Authenticator) Authenticate(n billing.Notification) error {
	if err := a.checkLive(n); err != nil {
		return err
	}
	if err := a.checkSignature(n); err != nil {
		return err
	}

	if n.IsLifecycleEvent() {
		if strings.TrimSpace(n.SubscriptionId) == "" &&
			strings.TrimSpace(n.Correlation) == "" &&
			strings.TrimSpace(n.PayerEmail) == "" {
			return billing.Reject(billing.ConditionSubject, "lifecycle event names no subscription, token or payer")
		}
		return nil
	}

	if IsPlaceholderTransactionId(n.TransactionId) {
		return billing.Reject(billing.ConditionTransactionId, "placeholder transaction id %q", n.TransactionId)
	}
	amount, ok := n.Amount()
	if !ok || amount <= 0 {
		return billing.Reject(billing.ConditionAmount, "gross amount %q is not positive", n.GrossAmount)
	}
	if !a.referencesProduct(n) {
		return billing.Reject(billing.ConditionProduct, "no recognizable product reference")
	}
	if status := n.PaymentStatus(); status != billing.PaymentStatusApproved {
		return billing.Reject(billing.ConditionStatus, "payment status %s (%s)", status, n.TransactionStatus)
	}
	return nil
}

func (a *Authenticator) checkLive(n billing.Notification) error {
	if n.Test {
		return billing.Reject(billing.ConditionTestMode, "flagged as test")
	}
	if n.LiveMode != nil && !*n.LiveMode {
		return billing.Reject(billing.ConditionTestMode, "live_mode is false")
	}
	return nil
}

func (a *Authenticator) checkSignature(n billing.Notification) error {
	if a.serverKey == "" {
		return nil
	}
	expected := Signature(n.OrderId, n.StatusCode, n.GrossAmount, a.serverKey)
	given := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(given)) != 1 {
		return billing.Reject(billing.ConditionSignature, "signature mismatch for order %q", n.OrderId)
	}
	return nil
}

func (a *Authenticator) referencesProduct(n billing.Notification) bool {
	if _, err := reference.Parse(n.Correlation); err == nil {
		return true
	}
	if strings.TrimSpace(n.PlanCode) != "" {
		return true
	}
	for _, id := range n.ItemIds {
		if _, ok := reference.LeadPackageItem(id); ok {
			return true
		}
	}
	return false
}

// Signature computes the provider notification signature:
// hex(SHA512(order_id + status_code + gross_amount + server_key)).
func Signature(orderId, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderId + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func IsPlaceholderTransactionId(id string) bool {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if _, ok := placeholderIds[normalized]; ok {
		return true
	}
	return strings.HasPrefix(normalized, "test_")
}
