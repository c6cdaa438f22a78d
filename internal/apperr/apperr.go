// Package apperr defines the typed error kinds shared across the engine
// packages (store, session, teamgen, schedule, rankings, discipline).
// Every mutating operation in this codebase returns one of these instead of
// a bare fmt.Errorf, so internal/response can map any error to the right
// HTTP status without a type switch at each call site.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies which of the fixed error categories an error belongs to.
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindNotFound
	KindAccessDenied
	KindStore
	KindTeam
)

// Error is the common shape for every typed error in this module.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports which category this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// StatusCode maps the error kind to the HTTP status spec.md §7 assigns it.
func (e *Error) StatusCode() int {
	switch e.kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindTeam:
		return http.StatusBadRequest
	case KindStore:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a ValidationError (400): input fails validation rules.
func Validation(msg string) error { return &Error{kind: KindValidation, message: msg} }

// Validationf wraps an underlying error as a ValidationError.
func Validationf(msg string, cause error) error {
	return &Error{kind: KindValidation, message: msg, cause: cause}
}

// Conflict builds a ConflictError (409): committing would violate an invariant.
func Conflict(msg string) error { return &Error{kind: KindConflict, message: msg} }

// NotFound builds a NotFoundError (404): league, date, or entity absent.
func NotFound(msg string) error { return &Error{kind: KindNotFound, message: msg} }

// AccessDenied builds an AccessDeniedError (403): caller not authorized for the league.
func AccessDenied(msg string) error { return &Error{kind: KindAccessDenied, message: msg} }

// Store builds a StoreError (500): I/O or corruption.
func Store(msg string, cause error) error {
	return &Error{kind: KindStore, message: msg, cause: cause}
}

// Team builds a TeamError (400/500 depending on cause): insufficient
// players or an unsatisfiable team configuration. TeamError defaults to a
// client error (bad config); wrap an I/O cause with Store instead if the
// failure is not the caller's fault.
func Team(msg string) error { return &Error{kind: KindTeam, message: msg} }

// Is reports whether err is an *Error of the given kind, following wrapped
// causes the way errors.Is would for a sentinel.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}
