package models

import "errors"

// LookupStatus describes the outcome of a collaborator lookup.
type LookupStatus int

const (
	// LookupFound means the value is present and usable.
	LookupFound LookupStatus = iota
	// LookupUnavailable means the source failed, timed out or had nothing for the key.
	LookupUnavailable
	// LookupMalformed means the source answered with an unexpected shape.
	LookupMalformed
)

// String returns the status name used in logs and metrics labels.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

// ErrNoData is used when a source answered successfully but had nothing for the key.
var ErrNoData = errors.New("no data")

// Lookup is the typed result of a single collaborator call.
// Callers degrade on anything other than LookupFound; a Lookup never aborts a run.
// A found lookup carries Err when the value is partial.
type Lookup[T any] struct {
	Value  T
	Status LookupStatus
	Err    error
}

// Found wraps a successful value.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Value: v, Status: LookupFound}
}

// Partial wraps a usable value assembled while some sources failed with err.
func Partial[T any](v T, err error) Lookup[T] {
	return Lookup[T]{Value: v, Status: LookupFound, Err: err}
}

// Unavailable records a failed or empty lookup.
func Unavailable[T any](err error) Lookup[T] {
	if err == nil {
		err = ErrNoData
	}
	return Lookup[T]{Status: LookupUnavailable, Err: err}
}

// Malformed records a response that could not be interpreted.
func Malformed[T any](err error) Lookup[T] {
	return Lookup[T]{Status: LookupMalformed, Err: err}
}

// OK reports whether the lookup produced a value.
func (l Lookup[T]) OK() bool {
	return l.Status == LookupFound
}

// Complete reports whether the lookup produced a value with no failed sources.
func (l Lookup[T]) Complete() bool {
	return l.OK() && l.Err == nil
}

// ErrMalformed marks a response body that could not be decoded.
var ErrMalformed = errors.New("malformed response")

// FromError classifies a failed call: ErrMalformed becomes Malformed,
// everything else Unavailable.
func FromError[T any](err error) Lookup[T] {
	if errors.Is(err, ErrMalformed) {
		return Malformed[T](err)
	}
	return Unavailable[T](err)
}
