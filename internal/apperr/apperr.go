// Package apperr defines the tagged error type shared by the authorization
// core and the HTTP layer. Callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the fixed outcomes the transport
// layer knows how to surface.
type Kind int

const (
	// KindUnauthenticated means no valid session; surfaced as "sign in required".
	KindUnauthenticated Kind = iota
	// KindForbidden means a valid session with insufficient role or ownership.
	KindForbidden
	// KindNotFound means the row does not exist, or exists but is unpublished
	// and not owned by the caller. The two cases are deliberately
	// indistinguishable.
	KindNotFound
	// KindInvalid means the request payload or parameters were malformed.
	KindInvalid
	// KindConflict means the request collides with existing state
	// (e.g. duplicate email on registration).
	KindConflict
	// KindTransient means the backing store was unreachable or timed out.
	// Always resolved fail-closed; retryable by the caller.
	KindTransient
)

// String returns the kind name used in audit detail and logs.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Error carries a kind, a server-side detail string, and an optional cause.
// On denial kinds (unauthenticated, forbidden, not found, transient) Detail
// is for logs and audit entries only and must never reach a response body;
// validation kinds may echo it.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a tagged error with the given kind and detail.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap returns a tagged error wrapping err.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns the kind of err. Untagged errors classify as KindTransient:
// an unexpected backend fault is propagated as a generic retryable failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
