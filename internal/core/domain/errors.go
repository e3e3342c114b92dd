package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user does not exist")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrInvalidPassword    = errors.New("current password is incorrect")
	ErrUnauthenticated    = errors.New("missing authentication headers")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrRemoteUnavailable  = errors.New("remote service unavailable")
)

// AlreadyExistsError names the unique field another active account holds.
type AlreadyExistsError struct {
	Field string
	Value string
}

func (e *AlreadyExistsError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s already taken", e.Field)
	}
	return fmt.Sprintf("%s already taken: %s", e.Field, e.Value)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrUserExists }

// DeletionBlockedError is returned when the reservation authority refuses
// an account deletion.
type DeletionBlockedError struct {
	BlockingCount int
	Reason        string
	Message       string
}

func (e *DeletionBlockedError) Error() string {
	return e.Message
}

// CascadeDeleteError carries the accommodation authority's failure message.
type CascadeDeleteError struct {
	Message string
}

func (e *CascadeDeleteError) Error() string {
	return "failed to delete accommodations: " + e.Message
}
