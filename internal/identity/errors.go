package identity

import "errors"

var (
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates an invalid, expired or unverifiable token.
	ErrInvalidToken = errors.New("invalid token")
)
