package geoloc

import (
	"context"
	"errors"
)

// ErrorKind is the closed classification of location failures. Raw
// platform errors are mapped into exactly one kind at the acquirer
// boundary and never re-inspected downstream.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindPermissionDenied
	KindPositionUnavailable
	KindTimeout
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindPositionUnavailable:
		return "position_unavailable"
	case KindTimeout:
		return "timeout"
	case KindUnsupported:
		return "unsupported"
	default:
		return "other"
	}
}

// Error is a classified location failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return "geoloc: " + e.Kind.String() + ": " + e.Message
	}
	return "geoloc: " + e.Kind.String()
}

// Remediable reports whether a plain retry could help. Denied
// permission needs out-of-band user action first, so callers show
// platform remediation copy instead of a retry button.
func (e *Error) Remediable() bool { return e.Kind != KindPermissionDenied }

// Platform position error codes, matching the common numeric scheme
// (1 denied, 2 unavailable, 3 timeout) used by browser and mobile
// location stacks.
const (
	codePermissionDenied    = 1
	codePositionUnavailable = 2
	codeTimeout             = 3
)

// Coded is implemented by sources whose errors carry a platform code.
type Coded interface {
	error
	PositionErrorCode() int
}

// Classify maps an arbitrary source error to the closed taxonomy. It is
// the single place duck-typed platform errors are interpreted.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var coded Coded
	if errors.As(err, &coded) {
		switch coded.PositionErrorCode() {
		case codePermissionDenied:
			return &Error{Kind: KindPermissionDenied, Message: coded.Error()}
		case codePositionUnavailable:
			return &Error{Kind: KindPositionUnavailable, Message: coded.Error()}
		case codeTimeout:
			return &Error{Kind: KindTimeout, Message: coded.Error()}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "location request timed out"}
	}
	if errors.Is(err, ErrUnsupported) {
		return &Error{Kind: KindUnsupported, Message: "this device cannot report a location"}
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindOther, Message: msg}
}
