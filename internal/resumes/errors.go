package resumes

import "errors"

var (
	// ErrNotFound indicates the resume does not exist or is not owned by the caller.
	ErrNotFound = errors.New("resume not found")
	// ErrUnauthorized indicates the caller has no authenticated identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput indicates malformed field data, rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQuotaExceeded indicates a create would exceed the caller's plan limit.
	ErrQuotaExceeded = errors.New("resume quota exceeded")
	// ErrUpgradeRequired indicates a premium customization on a free plan.
	ErrUpgradeRequired = errors.New("upgrade required")
)
