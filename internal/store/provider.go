// Package store defines the boundary to the external record store and its
// implementations.
package store

import (
	"context"
	"fmt"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
)

// Gateway is the interface for external record store operations.
type Gateway interface {
	// FetchSchema returns the property definitions in the store's declared order.
	FetchSchema(ctx context.Context) ([]PropertySchema, error)
	// QueryRecords returns the non-archived records ordered by sort.
	QueryRecords(ctx context.Context, sort Sort) ([]Page, error)
	// CreateRecord creates a record under the configured database.
	CreateRecord(ctx context.Context, properties map[string]PropertyValue) (*Page, error)
	// UpdateRecord writes the given properties to an existing record.
	UpdateRecord(ctx context.Context, id string, properties map[string]PropertyValue) error
	// ArchiveRecord moves a record to the store's trash.
	ArchiveRecord(ctx context.Context, id string) error
}

// APIError is a non-2xx reply from the external store.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("store: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("store: status %d (%s): %s", e.Status, e.Code, e.Message)
}

// Is makes a 404 reply match apperr.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == apperr.ErrNotFound && e.Status == http.StatusNotFound
}
