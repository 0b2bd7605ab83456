// Package domain defines the core domain models for the NDAify client.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure surfaced by the NDAify API client.
type ErrorKind string

const (
	// KindInvalidSession indicates a missing or rejected credential.
	KindInvalidSession ErrorKind = "invalid_session"

	// KindForbidden indicates the caller is not allowed to perform the action.
	KindForbidden ErrorKind = "forbidden"

	// KindNotFound indicates the requested entity does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindBadRequest indicates malformed input.
	KindBadRequest ErrorKind = "bad_request"

	// KindServiceUnavailable indicates a transport-level failure (DNS, timeout,
	// connection refused, cancellation).
	KindServiceUnavailable ErrorKind = "service_unavailable"

	// KindUnknown covers any other non-success status.
	KindUnknown ErrorKind = "unknown_service_error"
)

// Default messages per kind, used when the response body carries no errorMessage.
const (
	MsgInvalidSession     = "Invalid session token"
	MsgMissingSession     = "Missing sessionToken"
	MsgForbidden          = "Action not allowed"
	MsgNotFound           = "Entity does not exist"
	MsgBadRequest         = "Bad Request"
	MsgServiceUnavailable = "Service Unavailable"
	MsgUnknown            = "Oops! Something went wrong. Try again later."
)

// ServiceError is the single error type returned for remote failures.
//
// Data holds the raw response body when it was valid JSON. The body is a
// lightweight diagnostic contract of the form {"errorMessage": "..."}.
type ServiceError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Data       json.RawMessage
	Cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s %d] %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ServiceError of the same kind.
// This lets callers write errors.Is(err, domain.ErrNotFound).
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewServiceError creates a ServiceError. An empty message falls back to the
// default message of the kind.
func NewServiceError(kind ErrorKind, message string, statusCode int, data json.RawMessage) *ServiceError {
	if message == "" {
		message = DefaultMessage(kind)
	}
	return &ServiceError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Data:       data,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *ServiceError) WithCause(cause error) *ServiceError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// DefaultMessage returns the fallback message for a kind.
func DefaultMessage(kind ErrorKind) string {
	switch kind {
	case KindInvalidSession:
		return MsgInvalidSession
	case KindForbidden:
		return MsgForbidden
	case KindNotFound:
		return MsgNotFound
	case KindBadRequest:
		return MsgBadRequest
	case KindServiceUnavailable:
		return MsgServiceUnavailable
	default:
		return MsgUnknown
	}
}

// KindForStatus maps a failed HTTP status code to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindInvalidSession
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// IsSuccessStatus reports whether status is one of OK, Created or Accepted.
func IsSuccessStatus(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated || status == http.StatusAccepted
}

// KindOf extracts the kind from err. It returns "" when err is not a ServiceError.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// AsServiceError returns the ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// UserMessage returns the text shown to a user for err. Transport
// failures always read "Service Unavailable"; other service errors show the
// message the service sent.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	se, ok := AsServiceError(err)
	if !ok {
		return err.Error()
	}
	if se.Kind == KindServiceUnavailable {
		return MsgServiceUnavailable
	}
	return se.Message
}

// Sentinels for errors.Is comparisons. Only Kind is compared.
var (
	ErrInvalidSession     = &ServiceError{Kind: KindInvalidSession, Message: MsgInvalidSession}
	ErrForbidden          = &ServiceError{Kind: KindForbidden, Message: MsgForbidden}
	ErrNotFound           = &ServiceError{Kind: KindNotFound, Message: MsgNotFound}
	ErrBadRequest         = &ServiceError{Kind: KindBadRequest, Message: MsgBadRequest}
	ErrServiceUnavailable = &ServiceError{Kind: KindServiceUnavailable, Message: MsgServiceUnavailable}
	ErrUnknown            = &ServiceError{Kind: KindUnknown, Message: MsgUnknown}
)

// ============================================================================
// Local validation errors
// ============================================================================

var (
	// ErrInvalidTemplateID indicates a template id that cannot be split into
	// owner, repo, ref and path.
	ErrInvalidTemplateID = errors.New("invalid nda template id")

	// ErrInvalidStatus indicates an unknown agreement status.
	ErrInvalidStatus = errors.New("invalid nda status")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = errors.New("missing required argument")
)
