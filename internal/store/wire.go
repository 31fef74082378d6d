package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire type names used by the external store.
const (
	TypeTitle       = "title"
	TypeRichText    = "rich_text"
	TypeSelect      = "select"
	TypeMultiSelect = "multi_select"
	TypeCheckbox    = "checkbox"
	TypeStatus      = "status"
	TypeDate        = "date"
	TypeURL         = "url"
	TypeNumber      = "number"
)

var valueTypes = []string{
	TypeTitle, TypeRichText, TypeSelect, TypeMultiSelect, TypeCheckbox,
	TypeStatus, TypeDate, TypeURL, TypeNumber,
}

// Option is a select, multi-select or status option.
type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// OptionList holds the declared options of a choice property.
type OptionList struct {
	Options []Option `json:"options"`
}

// PropertySchema is one property definition as returned by the store.
type PropertySchema struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Select      *OptionList `json:"select,omitempty"`
	MultiSelect *OptionList `json:"multi_select,omitempty"`
	Status      *OptionList `json:"status,omitempty"`
}

// Options returns the declared options for choice types, nil otherwise.
func (p PropertySchema) Options() []Option {
	var list *OptionList
	switch p.Type {
	case TypeSelect:
		list = p.Select
	case TypeMultiSelect:
		list = p.MultiSelect
	case TypeStatus:
		list = p.Status
	}
	if list == nil {
		return nil
	}
	return list.Options
}

// Text is the plain content of a rich-text run.
type Text struct {
	Content string `json:"content"`
}

// RichText is one run of a rich-text value.
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

// Plain returns the run's text, preferring the rendered plain text.
func (r RichText) Plain() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

// TextRun returns a single rich-text run carrying s.
func TextRun(s string) RichText {
	return RichText{Type: "text", Text: &Text{Content: s}}
}

// DateValue is a date property value. Only the start is modelled.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// PropertyValue is a typed property value, used both when reading pages and
// when writing them. Type selects which field is meaningful.
type PropertyValue struct {
	ID          string
	Type        string
	Title       []RichText
	RichText    []RichText
	Select      *Option
	MultiSelect []Option
	Checkbox    bool
	Status      *Option
	Date        *DateValue
	URL         *string
	Number      *float64
}

// MarshalJSON writes only the field selected by Type, keyed by the type name:
// {"status": {"name": "Done"}}. A nil option, date, url or number is written
// as null, which clears the property.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	var body any
	switch v.Type {
	case TypeTitle:
		body = nonNil(v.Title)
	case TypeRichText:
		body = nonNil(v.RichText)
	case TypeSelect:
		body = v.Select
	case TypeMultiSelect:
		body = nonNil(v.MultiSelect)
	case TypeCheckbox:
		body = v.Checkbox
	case TypeStatus:
		body = v.Status
	case TypeDate:
		body = v.Date
	case TypeURL:
		body = v.URL
	case TypeNumber:
		body = v.Number
	default:
		return nil, fmt.Errorf("store: cannot encode property of type %q", v.Type)
	}
	return json.Marshal(map[string]any{v.Type: body})
}

// UnmarshalJSON reads both the store's read shape, which carries an explicit
// "type", and the write shape, where the type is implied by the only key.
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = PropertyValue{}
	if id, ok := raw["id"]; ok {
		if err := json.Unmarshal(id, &v.ID); err != nil {
			return fmt.Errorf("store: property id: %w", err)
		}
	}
	if t, ok := raw["type"]; ok {
		if err := json.Unmarshal(t, &v.Type); err != nil {
			return fmt.Errorf("store: property type: %w", err)
		}
	} else {
		for _, name := range valueTypes {
			if _, ok := raw[name]; ok {
				v.Type = name
				break
			}
		}
	}

	body, ok := raw[v.Type]
	if !ok {
		// Unsupported types (formula, relation, ...) keep only their type.
		return nil
	}
	var target any
	switch v.Type {
	case TypeTitle:
		target = &v.Title
	case TypeRichText:
		target = &v.RichText
	case TypeSelect:
		target = &v.Select
	case TypeMultiSelect:
		target = &v.MultiSelect
	case TypeCheckbox:
		target = &v.Checkbox
	case TypeStatus:
		target = &v.Status
	case TypeDate:
		target = &v.Date
	case TypeURL:
		target = &v.URL
	case TypeNumber:
		target = &v.Number
	default:
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("store: decode %s value: %w", v.Type, err)
	}
	return nil
}

// Page is one record of the external database.
type Page struct {
	ID          string                   `json:"id"`
	CreatedTime time.Time                `json:"created_time"`
	Archived    bool                     `json:"archived"`
	Properties  map[string]PropertyValue `json:"properties"`
}

// Sort is the single fixed ordering applied to queries.
type Sort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

// NewestFirst orders records by creation time, most recent first.
var NewestFirst = Sort{Timestamp: "created_time", Direction: "descending"}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
