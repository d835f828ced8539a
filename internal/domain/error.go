package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Onboarding flow
	ErrUnknownStep          = errors.New("unknown onboarding step")
	ErrStepNotApplicable    = errors.New("onboarding step does not apply to this user")
	ErrFlowAlreadyCompleted = errors.New("onboarding already completed")
	ErrSubmissionInProgress = errors.New("onboarding submission already in progress")
	ErrProfileUpdateFailed  = errors.New("profile update failed")
	ErrAttachmentTooLarge   = errors.New("attachment exceeds size limit")

	// Sessions
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrGuestSession    = errors.New("guest sessions cannot onboard")
	ErrRateLimited     = errors.New("too many requests")

	// Infra
	ErrInvalidExecContext = errors.New("invalid executor context")
)
