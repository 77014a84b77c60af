package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown-email and wrong-password at
	// login; collapsing them keeps the boundary from leaking which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated covers every refresh failure: missing, expired,
	// malformed, superseded or reused tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
)
