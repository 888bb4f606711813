package medidown

import (
	"errors"
)

var (
	// ErrInvalidInput means the URL failed every source's pattern match (or a
	// specific source's), before any network I/O. Caller fault; never retried.
	ErrInvalidInput = errors.New("invalid input URL")
	// ErrUpstreamUnavailable means every fallback stage was exhausted without
	// producing a usable result.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNoMediaFound means extraction succeeded but yielded zero classifiable
	// formats of any kind.
	ErrNoMediaFound = errors.New("no media found")
	// ErrFormatNotFound means the requested format id is absent from a
	// resolved catalog. Caller fault; never retried.
	ErrFormatNotFound = errors.New("format not found")

	ErrDuplicateSource = errors.New("duplicate source name")
	ErrInvalidSource   = errors.New("invalid source")
	ErrUnknownSource   = errors.New("unknown source")
)

// ErrorKind is the coarse classification exposed to front-end layers (HTTP,
// task queue, CLI), which only need to distinguish caller fault from
// upstream fault.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindNoMediaFound        ErrorKind = "no_media_found"
	KindFormatNotFound      ErrorKind = "format_not_found"
	KindInternal            ErrorKind = "internal"
)

// Kind classifies err into an ErrorKind. Unknown errors are internal.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownSource):
		return KindInvalidInput
	case errors.Is(err, ErrFormatNotFound):
		return KindFormatNotFound
	case errors.Is(err, ErrNoMediaFound):
		return KindNoMediaFound
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	default:
		return KindInternal
	}
}

// IsCallerFault reports whether err should never trigger retries or fallback
// escalation.
func IsCallerFault(err error) bool {
	k := Kind(err)
	return k == KindInvalidInput || k == KindFormatNotFound
}
