package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidTime            = errors.New("invalid time")
	ErrInvalidBody            = errors.New("unsupported body")
	ErrInvalidLocation        = errors.New("invalid location")
	ErrUnsupportedHouseSystem = errors.New("unsupported house system")
	ErrEphemerisUnavailable   = errors.New("ephemeris unavailable")
	ErrUpstreamOracle         = errors.New("upstream ephemeris failure")
	ErrBracketNotFound        = errors.New("bracket not found")
	ErrNotConverged           = errors.New("search did not converge")
)

// ErrorKind tells callers whether to fix the request, give up on the data
// range, or inspect a numerical result.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "invalid_input"
	KindEphemerisUnavailable ErrorKind = "ephemeris_unavailable"
	KindBracketNotFound      ErrorKind = "bracket_not_found"
	KindNotConverged         ErrorKind = "not_converged"
)

// Error wraps an underlying error with the failing operation and its kind.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// InvalidInput builds an invalid_input error wrapping sentinel with detail.
func InvalidInput(op string, sentinel error, format string, args ...any) error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: errorf(sentinel, format, args...)}
}

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// Unavailable marks err as an oracle coverage/data failure. Errors that
// already carry a kind are returned unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	if !errors.Is(err, ErrEphemerisUnavailable) && !errors.Is(err, ErrUpstreamOracle) {
		err = fmt.Errorf("%w: %w", ErrEphemerisUnavailable, err)
	}
	return &Error{Op: op, Kind: KindEphemerisUnavailable, Err: err}
}
