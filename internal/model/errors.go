package model

import (
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrNotFound is returned when a requested entity is absent from the cache or the durable store.
	ErrNotFound = fmt.Errorf("entity %w", errdefs.ErrNotFound)
	// ErrCacheMiss is returned by cache streams subscribed to an unknown content.
	ErrCacheMiss = fmt.Errorf("cache miss: %w", errdefs.ErrNotFound)
	// ErrFetchFailed marks a failed remote fetch.
	ErrFetchFailed = fmt.Errorf("fetch failed: %w", errdefs.ErrUnavailable)
	// ErrLoadFailed marks a failed read from the durable store.
	ErrLoadFailed = fmt.Errorf("load from persistent store failed: %w", errdefs.ErrDataLoss)
	// ErrDecode marks a payload that could not be decoded.
	ErrDecode = fmt.Errorf("decode failed: %w", errdefs.ErrInvalidArgument)

	ErrInvalidArgument = errdefs.ErrInvalidArgument
)

// FetchError carries the source of a failed remote fetch and its cause.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// LoadError carries the store operation that failed and its cause.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

// NotFoundError names the kind and id of a missing entity.
func NotFoundError(kind string, id int) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
