// Package errs provides the error taxonomy shared by every fileshare package.
//
// Subsystems (auth, policy, fileops, ...) translate their native errors into
// *errs.Error before returning them. The HTTP surfaces only ever inspect the
// Kind, so filesystem or driver errors never leak past the gateway boundary
// untranslated.
//
//	if errs.IsNotFound(err) {
//	    ...
//	}
//	status := errs.HTTPStatus(err)
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises an error independently of the subsystem that produced it.
type Kind int

const (
	KindUnknown        Kind = iota
	KindAuthentication      // missing or invalid session / API key
	KindAuthorization       // feature disabled by the administrator
	KindConfiguration       // required server secret not configured
	KindValidation          // bad client input (empty filename, no files)
	KindNotFound            // file absent or not addressable
	KindIO                  // unexpected filesystem or remote failure
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error // underlying error, kept for server-side logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }
func IsAuthorization(err error) bool  { return KindOf(err) == KindAuthorization }
func IsConfiguration(err error) bool  { return KindOf(err) == KindConfiguration }
func IsValidation(err error) bool     { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsIO(err error) bool             { return KindOf(err) == KindIO }

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the client-facing message of err. For *Error values with an
// IO cause the cause is appended so the operator can diagnose it.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	if e.Kind == KindIO && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// HTTPStatus maps err to the status code both surfaces report.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
