// Package errors defines the domain error taxonomy shared by the payment core.
// Handlers map error codes to HTTP statuses; services never import fiber.
package errors

import "fmt"

// Error codes. Every DomainError carries exactly one of these.
const (
	CodeValidation   = "VALIDATION"
	CodeInvalidState = "INVALID_STATE"
	CodeConflict     = "CONFLICT"
	CodeGateway      = "GATEWAY"
	CodeSignature    = "SIGNATURE"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is makes errors.Is match on code, so sentinel DomainErrors can be compared
// against wrapped instances.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

func Validation(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *DomainError {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: msg}
}

func Conflict(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

func Gateway(msg string, err error) *DomainError {
	return &DomainError{Code: CodeGateway, Message: msg, Err: err}
}

func Signature(msg string) *DomainError {
	return &DomainError{Code: CodeSignature, Message: msg}
}

func NotFound(msg string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: msg}
}

func Internal(msg string, err error) *DomainError {
	return &DomainError{Code: CodeInternal, Message: msg, Err: err}
}

// Kind returns the code of err if it is (or wraps) a DomainError, else
// CodeInternal.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeInternal
}
