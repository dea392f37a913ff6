package entitlements

import "errors"

var (
	// ErrNotFound indicates no entitlement snapshot exists for the user.
	ErrNotFound = errors.New("entitlement not found")
	// ErrInvalidTransition indicates a pause/resume/cancel that does not
	// apply to the snapshot's current status.
	ErrInvalidTransition = errors.New("invalid subscription transition")
)
