package translate

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/store"
)

func statusSchema(choices ...string) *schema.Schema {
	opts := &store.OptionList{}
	for _, c := range choices {
		opts.Options = append(opts.Options, store.Option{Name: c})
	}
	return schema.New([]store.PropertySchema{
		{Name: "Name", Type: store.TypeTitle},
		{Name: "Status", Type: store.TypeStatus, Status: opts},
		{Name: "Tags", Type: store.TypeMultiSelect, MultiSelect: &store.OptionList{}},
	})
}

func boolPtr(b bool) *bool { return &b }

func payloadJSON(t *testing.T, payload map[string]store.PropertyValue) string {
	t.Helper()
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestIsDoneName(t *testing.T) {
	for _, name := range []string{"Done", "done", "COMPLETE", "Completed"} {
		if !IsDoneName(name) {
			t.Errorf("%q should be done-like", name)
		}
	}
	for _, name := range []string{"Todo", "Not done", "Completed!", ""} {
		if IsDoneName(name) {
			t.Errorf("%q should not be done-like", name)
		}
	}
}

func TestApplyCompletedFlagStatus(t *testing.T) {
	s := statusSchema("Todo", "Done")

	got := ApplyCompletedFlag(s, boolPtr(true), ToWritePayload(s, map[string]any{}))
	if want := `{"Status":{"status":{"name":"Done"}}}`; payloadJSON(t, got) != want {
		t.Errorf("completed=true payload = %s, want %s", payloadJSON(t, got), want)
	}

	got = ApplyCompletedFlag(s, boolPtr(false), ToWritePayload(s, map[string]any{}))
	if want := `{"Status":{"status":{"name":"Todo"}}}`; payloadJSON(t, got) != want {
		t.Errorf("completed=false payload = %s, want %s", payloadJSON(t, got), want)
	}
}

func TestApplyCompletedFlagOverridesRequestedStatus(t *testing.T) {
	s := statusSchema("Todo", "In progress", "Complete")
	payload := ToWritePayload(s, map[string]any{"Status": "In progress"})
	got := ApplyCompletedFlag(s, boolPtr(true), payload)
	if name := got["Status"].Status.Name; name != "Complete" {
		t.Errorf("status = %q, want Complete", name)
	}
}

func TestApplyCompletedFlagAllDoneLike(t *testing.T) {
	s := statusSchema("Done", "Completed")
	got := ApplyCompletedFlag(s, boolPtr(false), nil)
	if name := got["Status"].Status.Name; name != "Done" {
		t.Errorf("status = %q, want first done-like fallback", name)
	}
}

func TestApplyCompletedFlagNoDoneChoice(t *testing.T) {
	s := statusSchema("Todo", "Doing")
	got := ApplyCompletedFlag(s, boolPtr(true), map[string]store.PropertyValue{"Status": {
		Type: store.TypeStatus, Status: &store.Option{Name: "Doing"},
	}})
	if name := got["Status"].Status.Name; name != "Todo" {
		t.Errorf("status = %q, want first declared choice", name)
	}
}

func TestApplyCompletedFlagNoChoices(t *testing.T) {
	s := statusSchema()
	got := ApplyCompletedFlag(s, boolPtr(true), map[string]store.PropertyValue{})
	if _, ok := got["Status"]; ok {
		t.Errorf("status without choices should stay unset, got %s", payloadJSON(t, got))
	}
}

func TestApplyCompletedFlagCheckbox(t *testing.T) {
	s := schema.New([]store.PropertySchema{
		{Name: "Name", Type: store.TypeTitle},
		{Name: "Done", Type: store.TypeCheckbox},
	})
	got := ApplyCompletedFlag(s, boolPtr(true), nil)
	if want := `{"Done":{"checkbox":true}}`; payloadJSON(t, got) != want {
		t.Errorf("payload = %s, want %s", payloadJSON(t, got), want)
	}
	got = ApplyCompletedFlag(s, boolPtr(false), got)
	if got["Done"].Checkbox {
		t.Error("checkbox should be cleared")
	}
}

func TestApplyCompletedFlagNoop(t *testing.T) {
	s := schema.New([]store.PropertySchema{{Name: "Name", Type: store.TypeTitle}})
	payload := map[string]store.PropertyValue{}
	if got := ApplyCompletedFlag(s, boolPtr(true), payload); len(got) != 0 {
		t.Errorf("no boolean property: payload = %s", payloadJSON(t, got))
	}
	s = statusSchema("Todo", "Done")
	if got := ApplyCompletedFlag(s, nil, payload); len(got) != 0 {
		t.Errorf("nil completed: payload = %s", payloadJSON(t, got))
	}
}

func TestToWritePayload(t *testing.T) {
	s := statusSchema("Todo", "Done")
	got := ToWritePayload(s, map[string]any{
		"Name":    "Ship it",
		"Tags":    []any{"A", "B"},
		"Status":  "",
		"Unknown": "dropped",
	})
	want := `{"Name":{"title":[{"type":"text","text":{"content":"Ship it"}}]},"Tags":{"multi_select":[{"name":"A"},{"name":"B"}]}}`
	if payloadJSON(t, got) != want {
		t.Errorf("payload = %s\nwant %s", payloadJSON(t, got), want)
	}
}

func TestToWritePayloadKeepsEmptyTitle(t *testing.T) {
	s := statusSchema("Todo")
	got := ToWritePayload(s, map[string]any{"Name": ""})
	if _, ok := got["Name"]; !ok {
		t.Error("empty title should be kept")
	}
}

func TestToUniform(t *testing.T) {
	s := statusSchema("Todo", "Done")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	page := store.Page{
		ID:          "p1",
		CreatedTime: created,
		Properties: map[string]store.PropertyValue{
			"Name":   {Type: store.TypeTitle, Title: []store.RichText{{PlainText: "Write tests"}}},
			"Status": {Type: store.TypeStatus, Status: &store.Option{Name: "Done"}},
			"Tags":   {Type: store.TypeMultiSelect, MultiSelect: []store.Option{{Name: "go"}}},
			"Extra":  {Type: store.TypeRichText},
		},
	}
	rec := ToUniform(s, page)
	want := models.Record{
		ID:        "p1",
		CreatedAt: created,
		Title:     "Write tests",
		Completed: true,
		Properties: map[string]any{
			"Name":   "Write tests",
			"Status": "Done",
			"Tags":   []string{"go"},
		},
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("record = %+v\nwant %+v", rec, want)
	}
}

func TestToUniformUntitled(t *testing.T) {
	s := statusSchema("Todo", "Done")
	for _, page := range []store.Page{
		{ID: "a", Properties: map[string]store.PropertyValue{}},
		{ID: "b", Properties: map[string]store.PropertyValue{"Name": {Type: store.TypeTitle}}},
	} {
		rec := ToUniform(s, page)
		if rec.Title != models.UntitledRecord {
			t.Errorf("%s: title = %q, want %q", page.ID, rec.Title, models.UntitledRecord)
		}
		if rec.Completed {
			t.Errorf("%s: missing status should not be completed", page.ID)
		}
	}
}

func TestToUniformNoBooleanProperty(t *testing.T) {
	s := schema.New([]store.PropertySchema{{Name: "Name", Type: store.TypeTitle}})
	rec := ToUniform(s, store.Page{ID: "x", Properties: map[string]store.PropertyValue{
		"Name": {Type: store.TypeTitle, Title: []store.RichText{store.TextRun("t")}},
	}})
	if rec.Completed {
		t.Error("completed should be false without a boolean property")
	}
}
