package service

import "errors"

// Failure conditions surfaced to callers. All of them are recoverable;
// the presentation layer maps them to form messages or HTTP statuses.
var (
	// ErrDuplicateUsername is returned by registration when the
	// username is already taken. The comparison is case-sensitive.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login. It does
	// not distinguish an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWrongOldPassword is returned by a password change when the
	// old password does not match the stored credential.
	ErrWrongOldPassword = errors.New("old password does not match")
	// ErrNotFound is returned when a user, chat, or message is absent.
	ErrNotFound = errors.New("not found")
	// ErrNoCurrentUser is returned by operations that require an
	// authenticated session when none exists.
	ErrNoCurrentUser = errors.New("no authenticated user")
	// ErrUnknownTheme is returned when a theme outside the fixed set
	// is selected.
	ErrUnknownTheme = errors.New("unknown theme")
)
