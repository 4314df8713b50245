package user

import "errors"

var (
	// ErrUserNotFound indicates the requested user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username is already registered
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials covers both unknown username and wrong password,
	// deliberately indistinguishable to the caller
	ErrInvalidCredentials = errors.New("invalid credentials")
)
