// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
//
// Sentinel values built with New are shared: Wrap returns a copy, so
// that wrapping a cause never mutates the package-level sentinel.
package errors

import (
	stderr "errors"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg    string
	err    error
	parent *Error
}

// Error message, followed by the wrapped cause if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error
func (e *Error) Wrap(err error) *Error {
	root := e
	if e.parent != nil {
		root = e.parent
	}
	return &Error{msg: e.msg, err: err, parent: root}
}

// WrapMessage wraps a plain message as the nested cause
func (e *Error) WrapMessage(format string) *Error {
	return e.Wrap(New(format))
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if e.parent != nil && e.parent == target {
		return true
	}
	return e.err == target
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.As)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
