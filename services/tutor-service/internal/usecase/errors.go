package usecase

import "errors"

var (
	ErrInvalidCredentials          = errors.New("invalid credentials")
	ErrUnknownSubject              = errors.New("token subject does not exist")
	ErrInactiveSubject             = errors.New("user is disabled")
	ErrUsernameGenerationExhausted = errors.New("could not generate a free username")
	ErrAuthenticationFailed        = errors.New("authentication failed")
	ErrExternalServiceFailure      = errors.New("external service failure")
	ErrEmptyTopic                  = errors.New("topic must not be empty")
	ErrInvalidDocument             = errors.New("document must be non-empty utf-8 text")
)
