// Package syncerr is the error taxonomy shared by the data-source client,
// the persistence layer and the sync pipeline. The retry helper dispatches on
// these types instead of matching message text.
package syncerr

import (
	"errors"
	"strings"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: retrying cannot change the outcome
// (missing entity, malformed input, auth failure).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Transient marks err as retryable (network blip, timeout, 5xx).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsPermanent reports whether err should not be retried. Untagged errors fall
// back to message classification so errors crossing an untyped boundary keep
// the historical behavior.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var p *permanentError
	if errors.As(err, &p) {
		return true
	}
	var t *transientError
	if errors.As(err, &t) {
		return false
	}
	return classifyMessage(err.Error())
}

var permanentPatterns = []string{
	"not found",
	"invalid",
	"unauthorized",
	"forbidden",
}

func classifyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range permanentPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
