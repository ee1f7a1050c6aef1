// Package apperr defines the typed failures surfaced by the account, organization and
// contract services. The transport boundary maps each Kind to a stable external status.
package apperr

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Kind classifies a failure. A Kind is itself an error so callers can test with
// errors.Is(err, apperr.NotFound).
type Kind string

const (
	NotFound                Kind = "not_found"
	NotAMember              Kind = "not_a_member"
	InsufficientPermissions Kind = "insufficient_permissions"
	NotOwner                Kind = "not_owner"
	OwnershipMismatch       Kind = "ownership_mismatch"
	InvalidArgument         Kind = "invalid_argument"
	Conflict                Kind = "conflict"
	Unauthenticated         Kind = "unauthenticated"
	Unavailable             Kind = "unavailable"
	Internal                Kind = "internal"
)

func (k Kind) Error() string { return strings.ReplaceAll(string(k), "_", " ") }

// Error is a classified failure. Op names the operation that failed (e.g. "contract.update").
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// E returns a new classified error.
func E(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err under kind. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Unavailablef wraps a repository failure. Errors that are already classified keep their kind.
func Unavailablef(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Unavailable, Op: op, Err: err}
}

// KindOf returns the Kind of err. Unclassified errors are Internal, except context
// cancellation and deadlines which are Unavailable. Returns "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Unavailable
	}
	return Internal
}

// HTTPStatus maps kind to the HTTP status the API boundary returns.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case NotAMember, InsufficientPermissions, NotOwner:
		return http.StatusForbidden
	case OwnershipMismatch, InvalidArgument:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
