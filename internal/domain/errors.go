package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrGatewayRejected     = errors.New("payment gateway rejected request")
	ErrSignatureMismatch   = errors.New("payment signature mismatch")
	ErrDuplicateHumanID    = errors.New("duplicate human id")
)

// IsNotFound reports whether err is a missing-record error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrReservationNotFound)
}

// IsConflict reports whether err should surface as a 409
func IsConflict(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) || errors.Is(err, ErrInvalidTransition)
}

// IsValidation reports whether err is a caller input error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRetryable reports whether the caller may safely retry the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable)
}
