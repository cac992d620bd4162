// Package apperrors defines the closed set of application error kinds and the
// mapping from each kind to its envelope code, HTTP status, and default
// messages. Handlers return these errors; a single middleware renders them.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a category of application failure. The set is closed:
// every failure an endpoint can surface maps to exactly one kind.
type Kind int

const (
	// KindInvalidParameter covers malformed or semantically invalid input
	KindInvalidParameter Kind = iota
	// KindAuthenticationFailed covers bad username/password pairs
	KindAuthenticationFailed
	// KindInvalidToken covers malformed, tampered, or expired tokens
	KindInvalidToken
	// KindPermissionDenied covers role or ownership check failures
	KindPermissionDenied
	// KindNotFound covers missing resources
	KindNotFound
	// KindAlreadyExists covers unique constraint violations
	KindAlreadyExists
	// KindRateLimited covers fixed-window rate limit trips
	KindRateLimited
	// KindInternal covers store failures and unexpected errors
	KindInternal
)

// kindInfo holds the rendering triple for one kind.
type kindInfo struct {
	envelopeCode int
	httpStatus   int
	message      string
	detail       string
}

var kinds = map[Kind]kindInfo{
	KindInvalidParameter: {
		envelopeCode: 1001,
		httpStatus:   http.StatusBadRequest,
		message:      "Invalid parameter",
		detail:       "One or more parameters are invalid or missing",
	},
	KindAuthenticationFailed: {
		envelopeCode: 1002,
		httpStatus:   http.StatusBadRequest,
		message:      "Invalid username or password",
		detail:       "Authentication failed",
	},
	KindInvalidToken: {
		envelopeCode: 1002,
		httpStatus:   http.StatusUnauthorized,
		message:      "Authentication failed",
		detail:       "Invalid token",
	},
	KindPermissionDenied: {
		envelopeCode: 1003,
		httpStatus:   http.StatusForbidden,
		message:      "Permission denied",
		detail:       "You do not have permission to perform this action",
	},
	KindNotFound: {
		envelopeCode: 1004,
		httpStatus:   http.StatusNotFound,
		message:      "Resource not found",
		detail:       "Resource does not exist or has been deleted",
	},
	KindAlreadyExists: {
		envelopeCode: 1001,
		httpStatus:   http.StatusBadRequest,
		message:      "Resource already exists",
		detail:       "Resource already exists or data is invalid",
	},
	// Rate limiting bypassed the taxonomy codes upstream; the envelope code
	// mirrors the transport status here.
	KindRateLimited: {
		envelopeCode: http.StatusTooManyRequests,
		httpStatus:   http.StatusTooManyRequests,
		message:      "Too many requests",
		detail:       "Too many requests, please try again later",
	},
	KindInternal: {
		envelopeCode: 1005,
		httpStatus:   http.StatusInternalServerError,
		message:      "Internal Server Error",
		detail:       "An internal error occurred",
	},
}

// EnvelopeCode returns the status field value for the response envelope.
func (k Kind) EnvelopeCode() int {
	return kinds[k].envelopeCode
}

// HTTPStatus returns the transport status code for the kind.
func (k Kind) HTTPStatus() int {
	return kinds[k].httpStatus
}

// Message returns the default user-facing message for the kind.
func (k Kind) Message() string {
	return kinds[k].message
}

// DefaultDetail returns the default error.details text for the kind.
func (k Kind) DefaultDetail() string {
	return kinds[k].detail
}

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindInvalidToken:
		return "invalid_token"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindRateLimited:
		return "rate_limited"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed application error carrying a kind, an optional detail
// override, and an optional wrapped cause. The cause is for logs only and
// never reaches the response body.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// New creates an error of the given kind with default messages.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// WithDetail creates an error of the given kind with a custom details string.
func WithDetail(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap creates an error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the error.details text, falling back to the kind default.
func (e *Error) Details() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Kind.DefaultDetail()
}

// FromError extracts an *Error from err. Unknown errors map to KindInternal
// so callers always get something renderable.
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, err)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
