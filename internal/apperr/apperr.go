// Package apperr defines the error kinds shared by the service layer and the
// HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnauthorized
	KindUpstream
	KindPersistence
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error carries a Kind, the operation that failed and a message that is safe
// to show to end users.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.messageOrKind(), e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.messageOrKind())
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.messageOrKind(), e.Err)
	default:
		return e.messageOrKind()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) messageOrKind() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// E builds an *Error.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Validation reports bad caller input; msg is shown to the user.
func Validation(op, msg string) *Error { return E(KindValidation, op, msg, nil) }

// NotFound reports a missing resource.
func NotFound(op, msg string) *Error { return E(KindNotFound, op, msg, nil) }

// Forbidden reports an action on a resource the caller does not own.
func Forbidden(op, msg string) *Error { return E(KindForbidden, op, msg, nil) }

// Conflict reports a uniqueness clash such as a taken username.
func Conflict(op, msg string, err error) *Error { return E(KindConflict, op, msg, err) }

// Unauthorized reports missing or bad credentials.
func Unauthorized(op, msg string) *Error { return E(KindUnauthorized, op, msg, nil) }

// Upstream wraps a catalog API failure.
func Upstream(op, msg string, err error) *Error { return E(KindUpstream, op, msg, err) }

// RateLimited reports a throttled caller.
func RateLimited(op, msg string) *Error { return E(KindRateLimited, op, msg, nil) }

// Persistence wraps a storage failure. The user sees a generic message.
func Persistence(op string, err error) *Error {
	return E(KindPersistence, op, "storage failure", err)
}

// KindOf returns the Kind of the outermost *Error in the chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err. Internal and persistence
// failures never leak their cause.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Kind {
	case KindInternal, KindPersistence:
		return "Something went wrong. Please try again."
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// HTTPStatus maps a kind to a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
