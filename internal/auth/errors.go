package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrStorageUnavailable = errors.New("credential storage unavailable")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrEmptyPassword      = errors.New("empty password")
)
