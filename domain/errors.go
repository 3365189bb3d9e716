// ABOUTME: Domain-level sentinel errors for the ad monitor
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import (
	"errors"
	"fmt"
)

// Fetch errors
var (
	// ErrTransientFetch indicates a page could not be fetched (network, timeout, bad status)
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrSoftBlocked indicates the page loaded but redirected to a login or checkpoint wall.
	// It wraps ErrTransientFetch so it is retried like any other fetch failure.
	ErrSoftBlocked = fmt.Errorf("%w: soft blocked by login or checkpoint redirect", ErrTransientFetch)

	// ErrSession indicates a fetcher session could not be opened
	ErrSession = errors.New("fetcher session error")
)

// Storage errors
var (
	// ErrStorage indicates the dedup store failed to read or write
	ErrStorage = errors.New("storage error")

	// ErrInvalidListing indicates a listing is missing its identity or URL
	ErrInvalidListing = errors.New("invalid listing")
)

// Feed errors
var (
	// ErrFeedRender indicates the syndication document could not be produced
	ErrFeedRender = errors.New("feed render error")
)
