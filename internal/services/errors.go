package services

import "errors"

var (
	// ErrAPIFailure wraps any non-successful exchange with the card API.
	ErrAPIFailure = errors.New("card API request failed")
	// ErrAccessDenied is returned when the API rejects the key (HTTP 403).
	ErrAccessDenied = errors.New("access denied, check API key")
	// ErrAborted marks a request cancelled by a newer one. Callers drop it silently.
	ErrAborted = errors.New("request aborted")
	// ErrInvalidRate rejects exchange rates that are not finite and positive.
	ErrInvalidRate = errors.New("invalid exchange rate")
	// ErrUnknownCurrency rejects codes outside the supported set.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrCardNotFound is returned when the API has no card for an id.
	ErrCardNotFound = errors.New("card not found")
)

var (
	// ErrInvalidSettings rejects settings values outside their allowed range.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidRequest rejects malformed collection, wishlist or deck input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEntryNotFound is returned for collection, wishlist or deck lookups
	// of ids that are not stored.
	ErrEntryNotFound = errors.New("entry not found")
)
