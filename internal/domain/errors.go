package domain

import "errors"

var (
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrTeacherExists      = errors.New("teacher already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("token not found")

	ErrNoActivePoll  = errors.New("no active poll")
	ErrStalePoll     = errors.New("poll is no longer active")
	ErrUnknownOption = errors.New("option does not belong to the active poll")
)
