package state

import (
	"errors"
	"fmt"
)

// #region kinds
// ErrorKind classifies recoverable engine failures. None of them is fatal.
type ErrorKind string

const (
	KindPersistenceWriteFailed ErrorKind = "persistence_write_failed"
	KindPersistenceReadFailed  ErrorKind = "persistence_read_failed"
	KindDecodeFailed           ErrorKind = "decode_failed"
	KindPreconditionUnmet      ErrorKind = "precondition_unmet"
)

// ErrIncompatibleSchema marks a snapshot written with another schema version.
var ErrIncompatibleSchema = errors.New("incompatible snapshot schema")

// #endregion kinds

// #region error
// Error carries a kind alongside the failing operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a kinded error wrapping a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or "" if err is not kinded.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// #endregion error
