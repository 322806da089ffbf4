package domain

import "errors"

// Error kinds surfaced to API callers. Handlers map these to HTTP
// statuses and machine-readable codes.
var (
	ErrNotFound           = errors.New("record not found")
	ErrForbidden          = errors.New("operation not allowed for this role")
	ErrDuplicate          = errors.New("uniqueness constraint violated")
	ErrAlreadyCompleted   = errors.New("receipt already completed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorageUnavailable = errors.New("blob storage unavailable")
)
