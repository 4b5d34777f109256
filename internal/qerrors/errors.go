// Package qerrors collects the sentinel error kinds shared across qbfproj's
// components, so callers can classify a failure with errors.Is instead of
// parsing a message string.
package qerrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds, one per failure class named in the external interface.
var (
	// ErrParse marks a malformed input document (QDIMACS, BLIF, CNF).
	ErrParse = errors.New("parse error")

	// ErrUnsupported marks a well-formed input that uses a construct this
	// implementation does not handle: a QDIMACS prefix whose innermost
	// block is not existential.
	ErrUnsupported = errors.New("unsupported input")

	// ErrBlowup marks a resource budget exceeded during construction: a
	// BDD or clause set outgrew --largestBddSize / --maxClauseTreeSize.
	ErrBlowup = errors.New("resource budget exceeded")

	// ErrTimeout marks an operation aborted after --timeoutSeconds.
	ErrTimeout = errors.New("operation timed out")

	// ErrAssertion marks an internal invariant violation: a bug, not a
	// bad input. Callers should treat this as fatal and report it as-is.
	ErrAssertion = errors.New("internal assertion violated")
)

// Wrap annotates err with msg while preserving its errors.Is kind.
func Wrap(kind error, msg string) error {
	return &wrapped{kind: kind, msg: msg}
}

// Wrapf is like Wrap with fmt.Sprintf-style formatting.
func Wrapf(kind error, format string, args ...interface{}) error {
	return Wrap(kind, fmt.Sprintf(format, args...))
}

type wrapped struct {
	kind error
	msg  string
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() error { return w.kind }
