package generation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kpiotrowski/flashforge/internal/ai"
)

type ErrorCode string

const (
	CodeAPIError            ErrorCode = "API_ERROR"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeParsingError        ErrorCode = "PARSING_ERROR"
	CodeNetworkError        ErrorCode = "NETWORK_ERROR"
	CodeInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	CodeInvalidAPIKey       ErrorCode = "INVALID_API_KEY"
	CodeModelNotFound       ErrorCode = "MODEL_NOT_FOUND"
)

// Error is the single failure kind a Generate call can produce: a code,
// a message, the HTTP status the API layer should answer with, and optional
// diagnostic details.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int
	Details string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, msg string, status int, details string) *Error {
	return &Error{Code: code, Message: msg, Status: status, Details: details}
}

// AsError unwraps err into a generation *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// WrapError classifies any error into a generation Error. Gateway errors are
// mapped kind by kind; anything unrecognized becomes a generic API_ERROR 500
// so no unclassified error ever reaches the caller.
func WrapError(err error) *Error {
	if ge, ok := AsError(err); ok {
		return ge
	}
	if gw, ok := ai.AsError(err); ok {
		return fromGateway(gw)
	}
	return newError(CodeAPIError, err.Error(), http.StatusInternalServerError, "")
}

func fromGateway(gw *ai.Error) *Error {
	status := gw.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	switch gw.Kind {
	case ai.KindValidationError:
		// a response the gateway could not validate is a client-visible 400
		return newError(CodeValidationError, gw.Message, http.StatusBadRequest, gw.Details)
	case ai.KindRateLimitError:
		// folded into API_ERROR at this layer, upstream status preserved
		return newError(CodeAPIError, gw.Message, status, gw.Details)
	case ai.KindNetworkError:
		return newError(CodeNetworkError, gw.Message, status, gw.Details)
	case ai.KindInsufficientCredits:
		return newError(CodeInsufficientCredits, gw.Message, status, gw.Details)
	case ai.KindInvalidAPIKey:
		return newError(CodeInvalidAPIKey, gw.Message, status, gw.Details)
	case ai.KindModelNotFound:
		return newError(CodeModelNotFound, gw.Message, status, gw.Details)
	default:
		return newError(CodeAPIError, gw.Message, status, gw.Details)
	}
}
