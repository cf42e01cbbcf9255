package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrConflict          = errors.New("conflict")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUpstream          = errors.New("upstream failure")
)

// ErrInvalidSchedule is the validation failure for malformed opening hours.
var ErrInvalidSchedule = fmt.Errorf("%w: invalid schedule", ErrValidation)
