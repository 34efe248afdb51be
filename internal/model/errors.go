package model

import "errors"

var (
	// ErrNotFound is returned when a referenced user, tenant or lead does not exist.
	ErrNotFound = errors.New("not found")

	ErrAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrNoPendingSetup = errors.New("no two-factor setup in progress")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrRateLimited    = errors.New("too many verification attempts")

	ErrNoEligibleReps      = errors.New("no eligible sales reps")
	ErrLeadAlreadyAssigned = errors.New("lead is already assigned")
	ErrUnknownMethod       = errors.New("unknown assignment method")
	ErrInvalidConfig       = errors.New("invalid assignment config")
)
