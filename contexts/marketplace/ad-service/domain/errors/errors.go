package errors

import "errors"

var (
	ErrAdNotFound         = errors.New("ad not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("actor is not the owner")
	ErrCannotEditTerminal = errors.New("ad is in a terminal status")
	ErrDuplicateAd        = errors.New("similar ad was submitted recently")
	ErrUserBanned         = errors.New("user account is banned")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidAdKind      = errors.New("invalid ad kind")
	ErrFavoriteExists     = errors.New("ad already in favorites")
	ErrFavoriteNotFound   = errors.New("favorite not found")
	ErrNoActiveSession    = errors.New("no active photo collection session")
)

// RateLimitError carries the user-facing throttle message chosen by the
// limiter rule that denied the request. It matches ErrRateLimited under
// errors.Is.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
