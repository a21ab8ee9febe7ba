package entity

import "errors"

var (
	// Booking errors
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbiddenTransition = errors.New("status transition not allowed for role")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")

	// Channel errors
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTransportFailure = errors.New("transport failure")

	ErrValidation = errors.New("validation failed")
)
