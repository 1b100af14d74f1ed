package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerExists      = errors.New("player already exists")
	ErrInvalidPlayerName = errors.New("invalid player name")
	ErrInvalidLevel      = errors.New("invalid level")
	ErrInvalidScore      = errors.New("invalid score value")
	ErrUnknownItem       = errors.New("unknown catalog item")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrInternalError     = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

// IsValidationError reports whether err was caused by bad caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPlayerName) ||
		errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrInvalidScore) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrInvalidRequest)
}
