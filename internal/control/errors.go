package control

import (
	"errors"
	"fmt"
)

// Kind classifies control socket failures
type Kind int

const (
	// KindIdentityNotFound - pid file missing or unreadable; not retried
	KindIdentityNotFound Kind = iota + 1
	// KindConnectionRefused - nothing listening on the control port
	KindConnectionRefused
	// KindTimeout - retry budget exhausted without a complete dump
	KindTimeout
	// KindMalformedRecord - a single dump line did not decode; always skipped
	KindMalformedRecord
	// KindPurgeFailed - purge after a dump was not acknowledged; logged only
	KindPurgeFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdentityNotFound:
		return "identity_not_found"
	case KindConnectionRefused:
		return "connection_refused"
	case KindTimeout:
		return "timeout"
	case KindMalformedRecord:
		return "malformed_record"
	case KindPurgeFailed:
		return "purge_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Terminal reports whether a failure of this kind ends a poll
func (k Kind) Terminal() bool {
	switch k {
	case KindIdentityNotFound, KindConnectionRefused, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified control socket failure
type Error struct {
	Kind  Kind
	Cause string // human-readable detail, may be empty
	Err   error  // underlying error, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Cause != "" {
		msg += ": " + e.Cause
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrTimeout) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrIdentityNotFound  = &Error{Kind: KindIdentityNotFound}
	ErrConnectionRefused = &Error{Kind: KindConnectionRefused}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrMalformedRecord   = &Error{Kind: KindMalformedRecord}
	ErrPurgeFailed       = &Error{Kind: KindPurgeFailed}
)

// KindOf extracts the Kind of err, if err carries one
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

func newError(kind Kind, cause string, err error) *Error {
	return &Error{Kind: kind, Cause: cause, Err: err}
}
