package backend

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a gateway failure.
type Kind uint8

const (
	// KindNetwork covers transport, DNS and timeout failures.
	KindNetwork Kind = iota + 1
	// KindProtocol covers malformed or unexpected responses.
	KindProtocol
	// KindValidation covers input the backend rejected.
	KindValidation
	// KindConflict covers vote toggles inconsistent with server state.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindProtocol:
		return "protocol error"
	case KindValidation:
		return "validation error"
	case KindConflict:
		return "conflict error"
	default:
		return "unknown error"
	}
}

// Error is returned by every Client operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrProtocol   = &Error{Kind: KindProtocol}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "backend: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or zero when err is not a gateway error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageOf returns the backend-provided message carried by err, if any.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

func networkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func protocolError(op, message string, err error) error {
	return &Error{Kind: KindProtocol, Op: op, Message: message, Err: err}
}

func validationError(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func conflictError(op, message string) error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

func unexpectedStatus(op string, code int) error {
	return protocolError(op, fmt.Sprintf("unexpected status %d", code), nil)
}
