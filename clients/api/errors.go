package api

import (
	"errors"
	"fmt"
)

var (
	ErrAuth       = errors.New("session token is required")
	ErrValidation = errors.New("invalid request")
	ErrCancelled  = errors.New("request cancelled")
	ErrTransport  = errors.New("backend unreachable")
	ErrProtocol   = errors.New("unexpected backend response")
)

// genericErrorMessage is used when a failed response carries no usable error field.
const genericErrorMessage = "Unknown error occurred"

// BackendError is a non-2xx response from the backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// Kind classifies err for events and exit codes.
func Kind(err error) string {
	var be *BackendError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.As(err, &be):
		return "backend"
	default:
		return "unknown"
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
