// Package testutil provides shared test helpers for seeding stores and
// scripting schema fetches.
package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/starford/ansuz/internal/store"
)

// ErrUnavailable is returned by a Fetcher told to fail.
var ErrUnavailable = errors.New("store unavailable")

// MemoryStore creates an in-memory gateway with the default task schema.
func MemoryStore(t *testing.T) *store.Memory {
	t.Helper()
	return store.NewMemory(nil)
}

// SeedTask creates a page titled title in the default task schema and
// returns its id. status is left unset when empty.
func SeedTask(t *testing.T, m *store.Memory, title, status string) string {
	t.Helper()
	props := map[string]store.PropertyValue{
		"Name": {Type: store.TypeTitle, Title: []store.RichText{store.TextRun(title)}},
	}
	if status != "" {
		props["Status"] = store.PropertyValue{Type: store.TypeStatus, Status: &store.Option{Name: status}}
	}
	page, err := m.CreateRecord(context.Background(), props)
	if err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return page.ID
}

// Fetcher is a scripted schema source. It counts calls, can be made to
// fail, and can hold every call until Release is called.
type Fetcher struct {
	Schema []store.PropertySchema

	calls atomic.Int32
	fail  atomic.Bool

	mu   sync.Mutex
	gate chan struct{}
}

// NewFetcher returns a Fetcher serving schema.
func NewFetcher(schema []store.PropertySchema) *Fetcher {
	return &Fetcher{Schema: schema}
}

// FetchSchema implements schema.Fetcher.
func (f *Fetcher) FetchSchema(ctx context.Context) ([]store.PropertySchema, error) {
	f.calls.Add(1)

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.fail.Load() {
		return nil, ErrUnavailable
	}
	return f.Schema, nil
}

// Calls returns how many fetches have started.
func (f *Fetcher) Calls() int {
	return int(f.calls.Load())
}

// SetFailing makes subsequent fetches fail (or succeed again).
func (f *Fetcher) SetFailing(fail bool) {
	f.fail.Store(fail)
}

// Hold makes subsequent fetches block until Release.
func (f *Fetcher) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

// Release unblocks held fetches.
func (f *Fetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// WithFetcher wraps a gateway so its schema comes from f, letting tests make
// schema population fail while records stay reachable.
func WithFetcher(gw store.Gateway, f *Fetcher) store.Gateway {
	return fetchOverride{Gateway: gw, f: f}
}

type fetchOverride struct {
	store.Gateway
	f *Fetcher
}

func (o fetchOverride) FetchSchema(ctx context.Context) ([]store.PropertySchema, error) {
	return o.f.FetchSchema(ctx)
}
