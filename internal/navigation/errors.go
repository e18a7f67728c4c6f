package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("navigation fetch failed")
	// ErrContentMissing matches every *ContentMissingError.
	ErrContentMissing = errors.New("navigation content region missing")
	// ErrSuperseded is returned by a load whose result was discarded because
	// a newer navigation was issued while it was in flight.
	ErrSuperseded = errors.New("navigation superseded by a newer request")
)

// FetchError reports a network failure, a non-success response or an
// unreadable body.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// ContentMissingError reports a fetched page without the content region.
type ContentMissingError struct {
	URL      string
	Selector string
}

func (e *ContentMissingError) Error() string {
	return fmt.Sprintf("page %s has no element matching %s", e.URL, e.Selector)
}

func (e *ContentMissingError) Is(target error) bool { return target == ErrContentMissing }
