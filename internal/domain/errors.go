package domain

import "errors"

// Closed error taxonomy for ledger and reservation operations. Handlers map
// these to HTTP status codes with errors.Is; services wrap them with context.
var (
	// ErrInvalidArgument: malformed input (non-positive quantity, value or period).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientInventory: requested quantity exceeds available quotas.
	ErrInsufficientInventory = errors.New("not enough quotas available")

	// ErrInvalidTransition: reservation event applied from a non-matching or terminal state.
	ErrInvalidTransition = errors.New("invalid reservation transition")

	// ErrVersionConflict: optimistic-concurrency collision on a ledger or reservation write.
	// Retried locally by the allocation engine, never surfaced directly.
	ErrVersionConflict = errors.New("version conflict")

	// ErrConflict: version-conflict retries exhausted.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrForbidden: actor lacks authority for the requested transition.
	ErrForbidden = errors.New("actor not allowed to perform this action")

	// ErrInvariantViolation: internal consistency check failed (e.g. release past the
	// reserved count). A data-integrity bug, never expected in normal operation.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrNotFound: ledger, property, reservation or user does not exist.
	ErrNotFound = errors.New("record not found")
)
