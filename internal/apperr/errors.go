// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSchemaFetchFailed means the external property definitions could not be
	// retrieved. The schema cache stays empty so the next call retries.
	ErrSchemaFetchFailed = errors.New("schema fetch failed")
	// ErrMissingTitleProperty means the external schema declares no title
	// property. Record creation stays impossible until the store is fixed.
	ErrMissingTitleProperty = errors.New("schema has no title property")
	// ErrMissingTitleValue means a create request left the title empty.
	ErrMissingTitleValue = errors.New("title is required")

	ErrRecordReadFailed  = errors.New("record read failed")
	ErrRecordWriteFailed = errors.New("record write failed")
)
