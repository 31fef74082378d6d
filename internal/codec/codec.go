// Package codec converts single property values between the external store's
// typed wire shapes and uniform JSON-native values.
package codec

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// Decode converts one external value of the given kind to a uniform value:
// string, float64, bool, []string or nil.
func Decode(kind models.Kind, raw store.PropertyValue) any {
	switch kind {
	case models.KindTitle:
		return joinRuns(raw.Title)
	case models.KindText:
		return joinRuns(raw.RichText)
	case models.KindSelect:
		return optionName(raw.Select)
	case models.KindMultiSelect:
		names := make([]string, 0, len(raw.MultiSelect))
		for _, o := range raw.MultiSelect {
			names = append(names, o.Name)
		}
		return names
	case models.KindCheckbox:
		return raw.Checkbox
	case models.KindStatus:
		return optionName(raw.Status)
	case models.KindDate:
		if raw.Date == nil || raw.Date.Start == "" {
			return nil
		}
		return raw.Date.Start
	case models.KindURL:
		if raw.URL == nil {
			return nil
		}
		return *raw.URL
	case models.KindNumber:
		if raw.Number == nil {
			return nil
		}
		return *raw.Number
	case models.KindOther:
		return nil
	default:
		return nil
	}
}

// Encode converts a uniform value to the write shape of def's kind.
//
// It returns nil when value is nil, when it cannot be coerced to the kind, or
// when the kind is not writable; the caller omits the property then.
//
// Status values are matched case-insensitively against the declared choices.
// A name that matches none is replaced by the first declared choice so that a
// status write never fails on the store side.
func Encode(def models.PropertyDefinition, value any) *store.PropertyValue {
	if value == nil {
		return nil
	}
	switch def.Kind {
	case models.KindTitle:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeTitle, Title: []store.RichText{store.TextRun(s)}}
	case models.KindText:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeRichText, RichText: []store.RichText{store.TextRun(s)}}
	case models.KindSelect:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeSelect, Select: &store.Option{Name: s}}
	case models.KindMultiSelect:
		names, ok := stringList(value)
		if !ok {
			return nil
		}
		opts := make([]store.Option, 0, len(names))
		for _, n := range names {
			opts = append(opts, store.Option{Name: n})
		}
		return &store.PropertyValue{Type: store.TypeMultiSelect, MultiSelect: opts}
	case models.KindCheckbox:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeCheckbox, Checkbox: b}
	case models.KindStatus:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeStatus, Status: &store.Option{Name: matchChoice(def.Choices, s)}}
	case models.KindDate:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeDate, Date: &store.DateValue{Start: s}}
	case models.KindURL:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeURL, URL: &s}
	case models.KindNumber:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil
		}
		return &store.PropertyValue{Type: store.TypeNumber, Number: &f}
	case models.KindOther:
		return nil
	default:
		return nil
	}
}

// matchChoice returns the declared choice equal to name ignoring case, the
// first declared choice when none is, or name itself when there are no choices.
func matchChoice(choices []string, name string) string {
	for _, c := range choices {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	if len(choices) > 0 {
		return choices[0]
	}
	return name
}

// stringList accepts a sequence or a single scalar.
func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out, err := cast.ToStringSliceE(v)
		return out, err == nil
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, false
		}
		return []string{s}, true
	}
}

func joinRuns(runs []store.RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Plain())
	}
	return b.String()
}

func optionName(o *store.Option) any {
	if o == nil {
		return nil
	}
	return o.Name
}
