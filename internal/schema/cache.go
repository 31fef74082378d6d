package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/store"
)

// Fetcher is the part of the store gateway the cache depends on.
type Fetcher interface {
	FetchSchema(ctx context.Context) ([]store.PropertySchema, error)
}

// Cache fetches the schema on first use and keeps it for the process
// lifetime. External schema edits are not detected; a restart picks them up.
//
// Concurrent first calls share a single fetch. A failed fetch is not cached.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	schema *Schema
}

// NewCache creates an empty cache backed by fetcher.
func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{fetcher: fetcher, logger: logger}
}

// Get returns the cached schema, fetching it if needed. Errors wrap
// apperr.ErrSchemaFetchFailed.
func (c *Cache) Get(ctx context.Context) (*Schema, error) {
	if s := c.cached(); s != nil {
		return s, nil
	}

	// The shared fetch must not be cancelled by whichever caller started it.
	ch := c.group.DoChan("schema", func() (any, error) {
		if s := c.cached(); s != nil {
			return s, nil
		}
		raw, err := c.fetcher.FetchSchema(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s := New(raw)
		c.mu.Lock()
		c.schema = s
		c.mu.Unlock()
		c.logger.Info("schema loaded",
			slog.Int("properties", len(s.definitions)),
			slog.String("title_property", s.title),
			slog.String("boolean_property", s.boolean))
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", apperr.ErrSchemaFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warn("schema fetch failed", slog.String("error", res.Err.Error()))
			return nil, fmt.Errorf("%w: %w", apperr.ErrSchemaFetchFailed, res.Err)
		}
		return res.Val.(*Schema), nil
	}
}

// Loaded reports whether the schema has been fetched.
func (c *Cache) Loaded() bool {
	return c.cached() != nil
}

func (c *Cache) cached() *Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}
