package analytics

import "fmt"

type ErrorReason string

const (
	REASON_INVALID_SESSION ErrorReason = "INVALID_SESSION"
	REASON_FAILED_TO_WRITE ErrorReason = "FAILED_TO_WRITE"
	REASON_FAILED_TO_FETCH ErrorReason = "FAILED_TO_FETCH"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newAnalyticsError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidSessionError(message string) *Error {
	return newAnalyticsError(REASON_INVALID_SESSION, message, nil)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newAnalyticsError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newAnalyticsError(REASON_FAILED_TO_FETCH, message, cause)
}
