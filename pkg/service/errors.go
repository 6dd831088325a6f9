package service

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. The HTTP layer maps each kind to a
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is an expected, user-facing failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func AuthenticationError(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func AuthorizationError(msg string) error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func ValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func ValidationErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
