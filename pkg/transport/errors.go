package transport

import (
	"errors"
	"fmt"
)

// Stable error identities for the client's failure taxonomy. Detailed causes
// are attached with errors.Join so callers classify with errors.Is while
// logs keep the full chain.
var (
	ErrInvalidConfiguration = errors.New("transport: invalid configuration")
	ErrNetwork              = errors.New("transport: no response received")
	ErrRateLimited          = errors.New("transport: rate limited")
	ErrAuthenticationFailed = errors.New("transport: authentication failed")
	ErrValidation           = errors.New("transport: request rejected")
	ErrServer               = errors.New("transport: server error")
	ErrCircuitOpen          = errors.New("transport: circuit breaker is open")
)

// APIError is a non-2xx response normalized into a shape the UI layer can
// present: the HTTP status, the server-provided message when one was sent,
// and optional per-field validation detail.
type APIError struct {
	Status      int
	Message     string
	FieldErrors map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transport: api error %d: %s", e.Status, e.Message)
}

// Unwrap maps the status class onto the taxonomy so errors.Is works:
// 5xx unwraps to ErrServer, other 4xx to ErrValidation.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status >= 500:
		return ErrServer
	case e.Status >= 400:
		return ErrValidation
	default:
		return nil
	}
}
