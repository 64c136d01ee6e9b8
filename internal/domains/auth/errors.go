package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginDisabled      = errors.New("admin login is not configured")
)
