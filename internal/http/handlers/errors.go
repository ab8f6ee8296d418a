// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The symbolic constants below are mapped to HTTP responses
// via the fail() helper and give clients a stable, machine-readable
// error taxonomy alongside human-readable messages.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeListFailed       = "list_failed"
	ErrCodeReconcileFailed  = "reconcile_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
