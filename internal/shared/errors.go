package shared

import "errors"

// Error taxonomy for the reconciliation core. Validation errors are detected
// before any write and are non-retryable. ErrStorageUnavailable is the only
// retryable class.
var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidActor indicates the submission names neither or both of driver/admin.
	ErrInvalidActor = errors.New("exactly one of driver or admin must originate a submission")
	// ErrInvalidAmount indicates an amount outside the allowed range.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidStateTransition indicates an attempt to move a submission out of a terminal state.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrDuplicateOrderClaim indicates an order already settled by another submission.
	ErrDuplicateOrderClaim = errors.New("order already claimed by another submission")
	// ErrMissingReason indicates a rejection without a reason.
	ErrMissingReason = errors.New("rejection reason required")
	// ErrStorageUnavailable indicates the database could not be reached within
	// the bounded timeout. Callers should retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
