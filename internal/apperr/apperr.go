package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func BadRequest(msg string) error            { return New(CodeBadRequest, msg) }
func Unauthenticated(msg string) error       { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) error             { return New(CodeForbidden, msg) }
func InvalidProfileContext(msg string) error { return New(CodeInvalidProfileContext, msg) }
func InvalidParticipants(msg string) error   { return New(CodeInvalidParticipants, msg) }
func NotParticipant(msg string) error        { return New(CodeNotParticipant, msg) }
func NotMember(msg string) error             { return New(CodeNotMember, msg) }
func DuplicateInvitation(msg string) error   { return New(CodeDuplicateInvitation, msg) }
func NotFound(msg string) error              { return New(CodeNotFound, msg) }
func RateLimited(msg string) error           { return New(CodeRateLimited, msg) }

// ConflictRetryable marks a uniqueness violation on create. Callers handle it
// locally by re-reading the existing record; it is never surfaced over HTTP.
func ConflictRetryable(msg string, cause error) error {
	return Wrap(CodeConflictRetryable, msg, cause)
}

// StoreUnavailable marks a backing-store I/O failure, distinct from NotFound
// so an outage is never read as "record doesn't exist".
func StoreUnavailable(cause error) error {
	return Wrap(CodeStoreUnavailable, "store unavailable", cause)
}

// CodeOf extracts the taxonomy code from an error chain.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func Is(err error, code Code) bool { return CodeOf(err) == code }

// HTTPStatus maps a taxonomy code to a transport status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeBadRequest, CodeInvalidProfileContext, CodeInvalidParticipants:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotParticipant, CodeNotMember:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeDuplicateInvitation, CodeConflictRetryable:
		return http.StatusConflict
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
