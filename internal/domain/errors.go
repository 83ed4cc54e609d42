package domain

import "github.com/pkg/errors"

// Error taxonomy. Callers branch with errors.Is; wrapped variants carry
// operation context.
var (
	// ErrNotFound covers both absent rows and rows owned by another user so
	// existence never leaks across accounts.
	ErrNotFound = errors.New("not found")

	// ErrValidation rejects malformed input before any mutation.
	ErrValidation = errors.New("invalid input")

	// ErrQuotaExceeded signals the monthly todo quota is exhausted.
	ErrQuotaExceeded = errors.New("plan limit reached")

	// ErrFeatureGated rejects a rule update that needs a premium feature.
	ErrFeatureGated = errors.New("feature not available on current plan")

	// ErrChannelUnavailable means the channel API is not configured; this is
	// not retryable and distinct from a failed send.
	ErrChannelUnavailable = errors.New("channel not configured")

	// ErrChannelSend wraps a transport failure from the channel API.
	ErrChannelSend = errors.New("channel send failed")
)
