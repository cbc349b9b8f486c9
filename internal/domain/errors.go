package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// ErrValidation marks malformed or missing client input. Never retryable.
	ErrValidation = errors.New("validation failed")

	// ErrSessionExpired is returned when an auth token or user session is
	// absent or past its TTL. The client must restart the relevant flow.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCode means the login provider rejected the confirmation code.
	// The auth token stays valid; the client may retry within the TTL.
	ErrInvalidCode = errors.New("invalid code")

	// ErrInvalidSecondFactor means the provider rejected the two-factor secret.
	ErrInvalidSecondFactor = errors.New("invalid second factor")

	// ErrAlreadyVoted is the idempotence rejection: this phone already holds a
	// vote marker for the work. A normal outcome, not an exceptional one.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrProviderTransient marks a network or timeout failure talking to the
	// login provider. The whole step is safe to retry.
	ErrProviderTransient = errors.New("provider unavailable")

	// ErrStoreUnavailable marks a Redis infrastructure failure, as opposed to
	// a key simply not existing.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is the normal "key absent" outcome from the store.
	ErrNotFound = errors.New("not found")
)
