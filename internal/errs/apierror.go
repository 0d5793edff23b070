package errs

import "fmt"

// APIError is the single error shape surfaced for failed API operations.
// Status is the HTTP-level status code; 0 means the request never produced
// a response (network failure, canceled context). Code carries the optional
// application error code when the server supplies one.
type APIError struct {
	Status  int
	Code    string
	Message string

	cause error
}

// New builds an APIError without an underlying cause.
func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// Wrap builds an APIError around a cause. The cause stays reachable
// through errors.Is/errors.As, so sentinels survive the wrapping.
func Wrap(status int, code, message string, cause error) *APIError {
	return &APIError{Status: status, Code: code, Message: message, cause: cause}
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }
