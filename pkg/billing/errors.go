package billing

import (
	"errors"
	"fmt"
)

var (
	ErrNotARealPayment        = errors.New("not a real payment")
	ErrDuplicateEvent         = errors.New("duplicate event")
	ErrEventInFlight          = errors.New("event is being processed by another attempt")
	ErrReferenceUnresolved    = errors.New("reference unresolved")
	ErrUnknownPlan            = errors.New("unknown plan")
	ErrUnknownPackage         = errors.New("unknown lead package")
	ErrLedgerWriteFailed      = errors.New("ledger write failed")
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrPartialIdentityFailure is a ReferenceUnresolved cause: the customer could be
	// identified only ambiguously or not at all by the fallback lookup.
	ErrPartialIdentityFailure = fmt.Errorf("%w: partial identity", ErrReferenceUnresolved)
)

// Condition names the authenticator check that failed.
type Condition string

const (
	ConditionTestMode      Condition = "test_mode"
	ConditionSignature     Condition = "signature"
	ConditionTransactionId Condition = "transaction_id"
	ConditionAmount        Condition = "amount"
	ConditionProduct       Condition = "product"
	ConditionSubject       Condition = "subject"
	ConditionStatus        Condition = "status"
)

// RejectionError carries the failed condition of a NotARealPayment verdict.
type RejectionError struct {
	Condition Condition
	Detail    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrNotARealPayment, e.Condition, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return ErrNotARealPayment
}

func Reject(condition Condition, format string, args ...interface{}) error {
	return &RejectionError{Condition: condition, Detail: fmt.Sprintf(format, args...)}
}
