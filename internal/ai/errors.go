package ai

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindAPIError            ErrorKind = "API_ERROR"
	KindNetworkError        ErrorKind = "NETWORK_ERROR"
	KindValidationError     ErrorKind = "VALIDATION_ERROR"
	KindRateLimitError      ErrorKind = "RATE_LIMIT_ERROR"
	KindInsufficientCredits ErrorKind = "INSUFFICIENT_CREDITS"
	KindInvalidAPIKey       ErrorKind = "INVALID_API_KEY"
	KindModelNotFound       ErrorKind = "MODEL_NOT_FOUND"
)

// Error is the gateway's tagged failure: a classification kind, a human
// message, the upstream HTTP status when one was received (0 otherwise) and
// an opaque details payload for diagnostics.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Details string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, msg string, status int, details string) *Error {
	return &Error{Kind: kind, Message: msg, Status: status, Details: details}
}

// AsError unwraps err into a gateway *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// classifyStatus maps a non-2xx upstream status to an error kind. The raw
// body travels along as details so failures can be debugged without
// re-querying the API.
func classifyStatus(status int, body string) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return newError(KindRateLimitError, "rate limit exceeded", status, body)
	case http.StatusPaymentRequired:
		return newError(KindInsufficientCredits, "insufficient credits", status, body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(KindInvalidAPIKey, "invalid API key", status, body)
	case http.StatusNotFound:
		return newError(KindModelNotFound, "model not found", status, body)
	default:
		return newError(KindAPIError, fmt.Sprintf("API request failed with status %d", status), status, body)
	}
}
