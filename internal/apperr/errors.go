package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindSignature     Kind = "signature"
	KindDuplicate     Kind = "duplicate_event"
)

// Error is a domain error surfaced to callers. Anything that is not an *Error
// is treated as a persistence/infrastructure failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, ErrBidTooLow) style checks work
// against both sentinels and freshly built errors of the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }
func Authorization(format string, args ...any) *Error {
	return New(KindAuthorization, format, args...)
}
func NotFound(format string, args ...any) *Error  { return New(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error  { return New(KindConflict, format, args...) }
func Signature(format string, args ...any) *Error { return New(KindSignature, format, args...) }

var (
	ErrBidTooLow      = &Error{Kind: KindValidation, Message: "bid too low"}
	ErrAuctionEnded   = &Error{Kind: KindConflict, Message: "auction ended"}
	ErrDuplicateEvent = &Error{Kind: KindDuplicate, Message: "no pending payment for link"}

	// Kind-only targets for errors.Is.
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrSignature     = &Error{Kind: KindSignature}
)

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDuplicate:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
