package services

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrInvalidSort        = errors.New("invalid sort parameter")
	ErrUsernameTaken      = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
