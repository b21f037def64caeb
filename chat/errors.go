package chat

import (
	"errors"
	"strings"
)

const (
	EmptyQueryMessage     = "Please enter a valid query."
	GenericFailureMessage = "Error occurred while processing the query."
)

// ErrBusy is returned when a submission is attempted while another one is
// still in flight.
var ErrBusy = errors.New("a query is already being processed")

// ValidationError means the query was rejected before reaching the service.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ServiceError wraps a failed query service call with the message shown to the user.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) UserMessage() string {
	return e.Message
}

// UserMessager is implemented by errors that carry a human readable message
// suitable for display.
type UserMessager interface {
	UserMessage() string
}

func newServiceError(err error) *ServiceError {
	msg := GenericFailureMessage
	var um UserMessager
	if errors.As(err, &um) {
		if m := strings.TrimSpace(um.UserMessage()); m != "" {
			msg = m
		}
	}
	return &ServiceError{Message: msg, Err: err}
}
