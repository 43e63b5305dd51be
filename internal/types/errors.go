package types

import (
	"errors"
	"fmt"
)

// Kind classifies failures of administrative operations.
type Kind int

const (
	// KindUnknown is an unclassified error.
	KindUnknown Kind = iota
	// KindUnauthorized means the modification token was rejected.
	KindUnauthorized
	// KindInvalidArgument means a request field failed validation.
	KindInvalidArgument
	// KindMalformedRule means the rule text did not parse.
	KindMalformedRule
	// KindStore means the persistent store failed.
	KindStore
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindMalformedRule:
		return "malformed_rule"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Sentinel errors for flowkeeper operations.
var (
	// ErrRecordExists indicates Add targeted a group that already has a rule set.
	ErrRecordExists = errors.New("flow control rule already exists")

	// ErrRecordNotFound indicates an update targeted a group without a rule set.
	ErrRecordNotFound = errors.New("flow control rule not found")
)

// Error is a classified error. Error() returns Msg unchanged so the
// message reaches the response envelope verbatim.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

// MalformedRule builds a KindMalformedRule error.
func MalformedRule(format string, args ...any) error {
	return &Error{Kind: KindMalformedRule, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized wraps an authorization failure.
func Unauthorized(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUnauthorized, Err: err}
}

// StoreFailure wraps a store error with the failed action.
func StoreFailure(err error, action string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStore, Msg: fmt.Sprintf("%s: %v", action, err), Err: err}
}

// Wrap classifies err under kind with a caller-facing message.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, KindUnknown if unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
