package store

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTaskSchema is the schema a Memory gateway starts with when none is
// given: a typical task database.
func DefaultTaskSchema() []PropertySchema {
	return []PropertySchema{
		{Name: "Name", Type: TypeTitle},
		{Name: "Status", Type: TypeStatus, Status: &OptionList{Options: []Option{
			{Name: "Todo"}, {Name: "In progress"}, {Name: "Done"},
		}}},
		{Name: "Tags", Type: TypeMultiSelect, MultiSelect: &OptionList{}},
		{Name: "Due", Type: TypeDate},
		{Name: "Link", Type: TypeURL},
		{Name: "Estimate", Type: TypeNumber},
		{Name: "Notes", Type: TypeRichText},
	}
}

// Memory is an in-process Gateway. It keeps records only for the lifetime of
// the process and is meant for local development and tests.
type Memory struct {
	mu     sync.RWMutex
	schema []PropertySchema
	types  map[string]string
	pages  map[string]*Page
	now    func() time.Time
	last   time.Time
}

// Verify *Memory satisfies Gateway at compile time.
var _ Gateway = (*Memory)(nil)

// NewMemory creates an in-memory gateway with the given property definitions.
// A nil schema selects DefaultTaskSchema.
func NewMemory(schema []PropertySchema) *Memory {
	if schema == nil {
		schema = DefaultTaskSchema()
	}
	types := make(map[string]string, len(schema))
	for _, p := range schema {
		types[p.Name] = p.Type
	}
	return &Memory{
		schema: slices.Clone(schema),
		types:  types,
		pages:  make(map[string]*Page),
		now:    time.Now,
	}
}

// FetchSchema returns the configured property definitions.
func (m *Memory) FetchSchema(_ context.Context) ([]PropertySchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.schema), nil
}

// QueryRecords returns the non-archived pages. Only creation-time ordering is
// supported.
func (m *Memory) QueryRecords(_ context.Context, sort Sort) ([]Page, error) {
	if sort.Timestamp != NewestFirst.Timestamp {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "validation_error",
			Message: fmt.Sprintf("unsupported sort timestamp %q", sort.Timestamp)}
	}
	m.mu.RLock()
	out := make([]Page, 0, len(m.pages))
	for _, p := range m.pages {
		if !p.Archived {
			out = append(out, clonePage(p))
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Page) int {
		c := a.CreatedTime.Compare(b.CreatedTime)
		if sort.Direction == "descending" {
			c = -c
		}
		return c
	})
	return out, nil
}

// CreateRecord stores a new page. Properties declared in the schema but not
// written start with their empty value, as the hosted store does.
func (m *Memory) CreateRecord(_ context.Context, properties map[string]PropertyValue) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(properties); err != nil {
		return nil, err
	}
	// Creation times are strictly increasing so ordering is total.
	created := m.now().UTC()
	if !created.After(m.last) {
		created = m.last.Add(time.Nanosecond)
	}
	m.last = created

	page := &Page{
		ID:          uuid.NewString(),
		CreatedTime: created,
		Properties:  make(map[string]PropertyValue, len(m.schema)),
	}
	for _, p := range m.schema {
		page.Properties[p.Name] = PropertyValue{Type: p.Type}
	}
	m.merge(page, properties)
	m.pages[page.ID] = page

	out := clonePage(page)
	return &out, nil
}

// UpdateRecord merges properties into an existing page.
func (m *Memory) UpdateRecord(_ context.Context, id string, properties map[string]PropertyValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	page, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := m.check(properties); err != nil {
		return err
	}
	m.merge(page, properties)
	return nil
}

// ArchiveRecord marks a page archived.
func (m *Memory) ArchiveRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	page, err := m.lookup(id)
	if err != nil {
		return err
	}
	page.Archived = true
	return nil
}

func (m *Memory) lookup(id string) (*Page, error) {
	page, ok := m.pages[id]
	if !ok || page.Archived {
		return nil, &APIError{Status: http.StatusNotFound, Code: "object_not_found",
			Message: fmt.Sprintf("could not find page with id %s", id)}
	}
	return page, nil
}

// check rejects properties the schema does not declare or whose type differs,
// mirroring the hosted store's validation.
func (m *Memory) check(properties map[string]PropertyValue) error {
	for name, v := range properties {
		want, ok := m.types[name]
		if !ok {
			return &APIError{Status: http.StatusBadRequest, Code: "validation_error",
				Message: fmt.Sprintf("%s is not a property that exists", name)}
		}
		if v.Type != want {
			return &APIError{Status: http.StatusBadRequest, Code: "validation_error",
				Message: fmt.Sprintf("%s is expected to be %s", name, want)}
		}
	}
	return nil
}

func (m *Memory) merge(page *Page, properties map[string]PropertyValue) {
	for name, v := range properties {
		v.Title = renderRuns(v.Title)
		v.RichText = renderRuns(v.RichText)
		page.Properties[name] = v
	}
}

// renderRuns fills plain_text the way the hosted store does on read.
func renderRuns(runs []RichText) []RichText {
	if runs == nil {
		return nil
	}
	out := make([]RichText, len(runs))
	for i, r := range runs {
		r.PlainText = r.Plain()
		out[i] = r
	}
	return out
}

func clonePage(p *Page) Page {
	out := *p
	out.Properties = make(map[string]PropertyValue, len(p.Properties))
	for k, v := range p.Properties {
		v.Title = slices.Clone(v.Title)
		v.RichText = slices.Clone(v.RichText)
		v.MultiSelect = slices.Clone(v.MultiSelect)
		out.Properties[k] = v
	}
	return out
}
