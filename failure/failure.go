/*
Package failure defines the kinds of error the isoforest packages return.

Every error produced by a failed build, score, merge or decoding operation
carries one of the kinds below, so callers can branch on it with errors.Is
regardless of how much context has been added while the error travelled up.
*/
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error
type Kind string

const (
	// InvalidInput is the kind of errors caused by malformed or empty
	// datasets, schema mismatches or invalid configuration.
	InvalidInput = Kind("invalid input")
	// CorruptData is the kind of errors found while decoding a forest
	// from its binary layout.
	CorruptData = Kind("corrupt data")
	// CapabilityUnavailable is the kind of errors returned by operations
	// that were not compiled into the running binary.
	CapabilityUnavailable = Kind("capability unavailable")
	// NumericOverflow is the kind of errors returned when depth or score
	// aggregation produces non-finite values.
	NumericOverflow = Kind("numeric overflow")
)

func (k Kind) Error() string {
	return string(k)
}

/*
Error is an error with a Kind, a message describing what went wrong and,
optionally, the error that caused it.
*/
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

/*
Is reports whether the target is the Kind of the error, so that
errors.Is(err, failure.CorruptData) works on wrapped errors.
*/
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

/*
Errorf takes a kind, a format and its arguments and returns an *Error
of that kind with the formatted message.
*/
func Errorf(k Kind, format string, a ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, a...)}
}

/*
Wrap takes a kind, a causing error, a format and its arguments and returns
an *Error of that kind with the formatted message wrapping the cause.
*/
func Wrap(k Kind, err error, format string, a ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, a...), Err: err}
}

// KindOf returns the kind of the first *Error in the chain of err
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
