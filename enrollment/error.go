package enrollment

import "fmt"

type ErrorReason string

const (
	REASON_INVALID_NAME        ErrorReason = "INVALID_NAME"
	REASON_INVALID_EMAIL       ErrorReason = "INVALID_EMAIL"
	REASON_INVALID_MOBILE      ErrorReason = "INVALID_MOBILE"
	REASON_GATEWAY_FAILURE     ErrorReason = "GATEWAY_FAILURE"
	REASON_VERIFICATION_FAILED ErrorReason = "VERIFICATION_FAILED"
	REASON_FAILED_TO_WRITE     ErrorReason = "FAILED_TO_WRITE"
	REASON_TIMEOUT             ErrorReason = "TIMEOUT"
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

// IsValidation reports whether the error is a user-correctable input problem.
func (e *Error) IsValidation() bool {
	switch e.Reason {
	case REASON_INVALID_NAME, REASON_INVALID_EMAIL, REASON_INVALID_MOBILE:
		return true
	default:
		return false
	}
}

func newEnrollmentError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidNameError(message string) *Error {
	return newEnrollmentError(REASON_INVALID_NAME, message, nil)
}

func NewInvalidEmailError(message string) *Error {
	return newEnrollmentError(REASON_INVALID_EMAIL, message, nil)
}

func NewInvalidMobileError(message string) *Error {
	return newEnrollmentError(REASON_INVALID_MOBILE, message, nil)
}

func NewGatewayFailureError(message string, cause error) *Error {
	return newEnrollmentError(REASON_GATEWAY_FAILURE, message, cause)
}

func NewVerificationFailedError(message string) *Error {
	return newEnrollmentError(REASON_VERIFICATION_FAILED, message, nil)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newEnrollmentError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newEnrollmentError(REASON_TIMEOUT, message, nil)
}
