// Package errors classifies dnslens failures so callers can pick a status
// code or exit path without matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an Error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInternal
	KindValidation
	KindUnavailable
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindInternal:    "internal",
	KindValidation:  "validation",
	KindUnavailable: "unavailable",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is a classified failure. Record is the zero-based position of the
// offending element when the failure concerns one record of an upload
// batch, and -1 otherwise.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Record  int
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind with a fixed message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg, Record: -1}
}

// Errorf is New with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap classifies err under kind. It returns nil when err is nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err, Record: -1}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// AtRecord ties err to the batch element at index. A plain error keeps
// whatever Kind its chain already carries.
func AtRecord(err error, index int) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		tagged := *e
		tagged.Record = index
		return &tagged
	}
	return &Error{Kind: GetKind(err), Err: err, Record: index}
}

// GetKind returns the Kind of the outermost *Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RecordIndex reports the batch element the first tagged *Error in err's
// chain points at.
func RecordIndex(err error) (int, bool) {
	var e *Error
	for errors.As(err, &e) {
		if e.Record >= 0 {
			return e.Record, true
		}
		err = e.Err
	}
	return 0, false
}

// IsValidation reports whether err was classified as bad caller input.
func IsValidation(err error) bool { return GetKind(err) == KindValidation }

// As is errors.As, re-exported so callers need only this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}
