package domain

import "errors"

// Every failure surfaced by the engine wraps one of these sentinels so the
// HTTP layer can map it to a status code and the caller gets a specific
// reason instead of a generic failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("not allowed")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrStore             = errors.New("store failure")
)
