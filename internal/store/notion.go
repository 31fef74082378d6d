package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// DefaultNotionURL is the public API root.
	DefaultNotionURL = "https://api.notion.com/v1"
	// DefaultNotionVersion is the API version the wire types follow.
	DefaultNotionVersion = "2022-06-28"

	queryPageSize = 100
	maxErrorBody  = 64 << 10
)

// NotionConfig configures the Notion gateway.
type NotionConfig struct {
	BaseURL    string
	Token      string
	DatabaseID string
	Version    string
	Timeout    time.Duration
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Notion implements Gateway against the Notion REST API.
type Notion struct {
	baseURL    string
	token      string
	databaseID string
	version    string
	client     *http.Client
}

// Verify *Notion satisfies Gateway at compile time.
var _ Gateway = (*Notion)(nil)

// NewNotion creates a gateway for one database.
func NewNotion(cfg NotionConfig) (*Notion, error) {
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("store: notion database id is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultNotionURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("store: parse base url: %w", err)
	}
	version := cfg.Version
	if version == "" {
		version = DefaultNotionVersion
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Notion{
		baseURL:    base,
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		version:    version,
		client:     client,
	}, nil
}

// FetchSchema reads the database's property definitions, preserving the
// order in which the API lists them.
func (n *Notion) FetchSchema(ctx context.Context) ([]PropertySchema, error) {
	db := struct {
		Properties *orderedmap.OrderedMap[string, PropertySchema] `json:"properties"`
	}{
		Properties: orderedmap.New[string, PropertySchema](),
	}
	if err := n.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(n.databaseID), nil, &db); err != nil {
		return nil, fmt.Errorf("store: fetch schema: %w", err)
	}
	out := make([]PropertySchema, 0, db.Properties.Len())
	for pair := db.Properties.Oldest(); pair != nil; pair = pair.Next() {
		p := pair.Value
		if p.Name == "" {
			p.Name = pair.Key
		}
		out = append(out, p)
	}
	return out, nil
}

// QueryRecords returns the first page of records in the given order.
func (n *Notion) QueryRecords(ctx context.Context, sort Sort) ([]Page, error) {
	req := map[string]any{
		"sorts":     []Sort{sort},
		"page_size": queryPageSize,
	}
	var resp struct {
		Results []Page `json:"results"`
	}
	if err := n.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(n.databaseID)+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	return resp.Results, nil
}

// CreateRecord creates a page in the configured database.
func (n *Notion) CreateRecord(ctx context.Context, properties map[string]PropertyValue) (*Page, error) {
	req := map[string]any{
		"parent":     map[string]string{"database_id": n.databaseID},
		"properties": nonNilMap(properties),
	}
	var page Page
	if err := n.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, fmt.Errorf("store: create record: %w", err)
	}
	return &page, nil
}

// UpdateRecord patches the given properties of a page.
func (n *Notion) UpdateRecord(ctx context.Context, id string, properties map[string]PropertyValue) error {
	req := map[string]any{"properties": nonNilMap(properties)}
	if err := n.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("store: update record %s: %w", id, err)
	}
	return nil
}

// ArchiveRecord archives a page.
func (n *Notion) ArchiveRecord(ctx context.Context, id string) error {
	req := map[string]any{"archived": true}
	if err := n.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("store: archive record %s: %w", id, err)
	}
	return nil
}

func (n *Notion) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Notion-Version", n.version)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	// The body's status field, when present, must not override the real one.
	apiErr.Status = resp.StatusCode
	return apiErr
}

func nonNilMap(m map[string]PropertyValue) map[string]PropertyValue {
	if m == nil {
		return map[string]PropertyValue{}
	}
	return m
}
