package gfelog

import "fmt"

// Kind classifies a driver error per the error handling design: it governs
// how the error propagates (fatal to the driver, scoped to one RPC
// connection, or surfaced as a typed RPC response).
type Kind uint8

const (
	// Config is a bad parameter: out-of-range port, non-positive thread count.
	Config Kind = iota
	// Io is a socket or file failure: bind/listen/accept/recv/send/open/read.
	Io
	// BadLog is a malformed graphlog header or a truncated section.
	BadLog
	// NotSupported means the library lacks a required capability tier.
	NotSupported
	// LibraryError is a recoverable error raised by the graph library.
	LibraryError
	// Protocol is an unknown request tag or an oversized frame.
	Protocol
	// Fatal is an assertion-level violation: impossible partition, double
	// signal registration.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "Config"
	case Io:
		return "Io"
	case BadLog:
		return "BadLog"
	case NotSupported:
		return "NotSupported"
	case LibraryError:
		return "LibraryError"
	case Protocol:
		return "Protocol"
	case Fatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Error is the driver's typed error, wrapping an underlying cause with the
// Kind that determines how callers must react.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Newf builds an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, defaulting
// to Fatal for anything else so unclassified errors fail closed.
func KindOf(err error) Kind {
	var gerr *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			gerr = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if gerr == nil {
		return Fatal
	}
	return gerr.Kind
}
