package contract

import "errors"

// ErrStaleRow is returned by conditional writes that matched no row because the
// row changed after it was read.
var ErrStaleRow = errors.New("row changed since it was read")

// ErrActiveRowExists is returned when a write would leave a user with two active
// subscriptions.
var ErrActiveRowExists = errors.New("user already has an active subscription")
