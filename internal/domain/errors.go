package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found in the catalogue
	ErrProductNotFound = errors.New("product not found in catalogue")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogueAPIFailure is returned when a catalogue API request fails
	ErrCatalogueAPIFailure = errors.New("catalogue API request failed")

	// ErrTranscriptionFailure is returned when the capture service cannot process a recording or photo
	ErrTranscriptionFailure = errors.New("transcription request failed")

	// ErrDiaryCommitFailure is returned when the diary rejects or fails a commit
	ErrDiaryCommitFailure = errors.New("diary commit failed")

	// ErrUnresolvedProduct is returned when a draft item could not be linked to a catalogue product
	ErrUnresolvedProduct = errors.New("draft item has no catalogue product")

	// ErrSessionNotFound is returned when a draft session does not exist or has expired
	ErrSessionNotFound = errors.New("draft session not found")

	// ErrInvalidTransition is returned when a confirmation flow step is not allowed in the current state
	ErrInvalidTransition = errors.New("invalid draft session transition")

	// ErrItemNotFound is returned when a draft item index is out of range
	ErrItemNotFound = errors.New("draft item not found")

	// ErrUnknownUnit is returned when a unit label is not offered by the item
	ErrUnknownUnit = errors.New("unit not available for item")

	// ErrEmptyDraft is returned when confirming a draft that would commit nothing
	ErrEmptyDraft = errors.New("draft has no items")

	// ErrNoEntries is returned when there are no diary entries to edit
	ErrNoEntries = errors.New("no diary entries for meal")
)
