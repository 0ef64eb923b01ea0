package albion

import (
	"errors"
	"fmt"
)

// ErrFetchFailure marks any failure to reach or decode the upstream price service.
// It is non-fatal: caches keep their previous payload.
var ErrFetchFailure = errors.New("fetch failure")

// ErrEmptyHistory means a history request succeeded but carried no usable buckets.
var ErrEmptyHistory = errors.New("empty history")

// FetchError describes a failed upstream call.
type FetchError struct {
	Op     string // "prices", "history", "gold" or a cache key
	URL    string
	Status int // HTTP status, 0 for transport/decode errors
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s %s: HTTP %d", ErrFetchFailure, e.Op, e.URL, e.Status)
	case e.URL != "":
		return fmt.Sprintf("%s: %s %s: %v", ErrFetchFailure, e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFetchFailure, e.Op, e.Err)
}

// Is lets errors.Is(err, ErrFetchFailure) match.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailure }

func (e *FetchError) Unwrap() error { return e.Err }

// asFetchError wraps err unless it already reports ErrFetchFailure.
func asFetchError(op string, err error) error {
	if err == nil || errors.Is(err, ErrFetchFailure) {
		return err
	}
	return &FetchError{Op: op, Err: err}
}
