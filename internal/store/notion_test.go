package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

// testNotion starts a fake API and returns a gateway pointed at it.
func testNotion(t *testing.T, handler http.HandlerFunc) *Notion {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n, err := NewNotion(NotionConfig{
		BaseURL:    srv.URL + "/v1",
		Token:      "secret",
		DatabaseID: "db1",
		Client:     srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestNewNotionRequiresDatabase(t *testing.T) {
	if _, err := NewNotion(NotionConfig{Token: "x"}); err == nil {
		t.Fatal("missing database id should fail")
	}
}

func TestFetchSchemaKeepsOrder(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/databases/db1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != DefaultNotionVersion {
			t.Errorf("version = %q", got)
		}
		_, _ = io.WriteString(w, `{"object":"database","id":"db1","properties":{
			"Zeta":   {"id":"a","name":"Zeta","type":"rich_text","rich_text":{}},
			"Name":   {"id":"title","name":"Name","type":"title","title":{}},
			"Status": {"id":"b","name":"Status","type":"status","status":{"options":[
				{"id":"1","name":"Todo","color":"red"},{"id":"2","name":"Done","color":"green"}]}},
			"Alpha":  {"id":"c","name":"Alpha","type":"formula","formula":{"expression":"1"}}
		}}`)
	})

	props, err := n.FetchSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range props {
		names = append(names, p.Name)
	}
	if want := []string{"Zeta", "Name", "Status", "Alpha"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	opts := props[2].Options()
	if len(opts) != 2 || opts[1].Name != "Done" {
		t.Errorf("status options = %+v", opts)
	}
}

func TestQueryRecords(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/databases/db1/query" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Sorts    []Sort `json:"sorts"`
			PageSize int    `json:"page_size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.Sorts) != 1 || body.Sorts[0] != NewestFirst || body.PageSize != 100 {
			t.Errorf("body = %+v", body)
		}
		_, _ = io.WriteString(w, `{"object":"list","results":[{
			"id":"p1","created_time":"2026-01-02T03:04:05.000Z","archived":false,
			"properties":{
				"Name":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"Hi"},"plain_text":"Hi"}]},
				"Status":{"id":"b","type":"status","status":{"id":"2","name":"Done","color":"green"}},
				"Due":{"id":"d","type":"date","date":null},
				"Score":{"id":"e","type":"formula","formula":{"type":"number","number":3}}
			}}]}`)
	})

	pages, err := n.QueryRecords(context.Background(), NewestFirst)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d", len(pages))
	}
	p := pages[0]
	if p.ID != "p1" || p.CreatedTime.Year() != 2026 {
		t.Errorf("page = %+v", p)
	}
	if got := p.Properties["Name"].Title[0].Plain(); got != "Hi" {
		t.Errorf("title = %q", got)
	}
	if got := p.Properties["Status"].Status; got == nil || got.Name != "Done" {
		t.Errorf("status = %+v", got)
	}
	if p.Properties["Due"].Date != nil {
		t.Error("null date should decode to nil")
	}
	if got := p.Properties["Score"].Type; got != "formula" {
		t.Errorf("formula type = %q", got)
	}
}

func TestCreateRecordBody(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/pages" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		want := `{"parent":{"database_id":"db1"},"properties":{"Status":{"status":{"name":"Done"}}}}`
		if string(data) != want {
			t.Errorf("body = %s\nwant %s", data, want)
		}
		_, _ = io.WriteString(w, `{"id":"new","created_time":"2026-01-02T03:04:05.000Z","properties":{}}`)
	})

	page, err := n.CreateRecord(context.Background(), map[string]PropertyValue{
		"Status": {Type: TypeStatus, Status: &Option{Name: "Done"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if page.ID != "new" {
		t.Errorf("id = %q", page.ID)
	}
}

func TestArchiveRecordBody(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/pages/p1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		if string(data) != `{"archived":true}` {
			t.Errorf("body = %s", data)
		}
		_, _ = io.WriteString(w, `{"id":"p1"}`)
	})
	if err := n.ArchiveRecord(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}
}

func TestAPIErrorNotFound(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`)
	})

	err := n.UpdateRecord(context.Background(), "gone", map[string]PropertyValue{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "object_not_found" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestAPIErrorPlainBody(t *testing.T) {
	n := testNotion(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := n.FetchSchema(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Errorf("api error = %+v", apiErr)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Error("502 must not match ErrNotFound")
	}
}

func TestPropertyValueWriteShapeRoundTrip(t *testing.T) {
	n := 4.0
	in := map[string]PropertyValue{
		"Name":     {Type: TypeTitle, Title: []RichText{TextRun("x")}},
		"Tags":     {Type: TypeMultiSelect},
		"Estimate": {Type: TypeNumber, Number: &n},
		"Due":      {Type: TypeDate},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Due":{"date":null},"Estimate":{"number":4},"Name":{"title":[{"type":"text","text":{"content":"x"}}]},"Tags":{"multi_select":[]}}`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}

	var out map[string]PropertyValue
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["Estimate"].Type != TypeNumber || *out["Estimate"].Number != 4 {
		t.Errorf("estimate = %+v", out["Estimate"])
	}
	if out["Name"].Title[0].Plain() != "x" {
		t.Errorf("name = %+v", out["Name"])
	}
}

func TestPropertyValueUnknownType(t *testing.T) {
	if _, err := json.Marshal(PropertyValue{Type: "formula"}); err == nil {
		t.Error("formula values are not writable")
	}
}
