// Package translate converts whole records between the external store and the
// uniform task representation, using a schema and the property codec.
package translate

import (
	"strings"

	"github.com/starford/ansuz/internal/codec"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/store"
)

// doneNames are the status/choice names that count as completed.
var doneNames = []string{"done", "complete", "completed"}

// IsDoneName reports whether name denotes completion, ignoring case.
func IsDoneName(name string) bool {
	for _, d := range doneNames {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// ToUniform converts a page into a Record. Only properties the schema defines
// and the page carries are decoded.
func ToUniform(s *schema.Schema, page store.Page) models.Record {
	rec := models.Record{
		ID:         page.ID,
		CreatedAt:  page.CreatedTime,
		Title:      models.UntitledRecord,
		Properties: make(map[string]any, len(page.Properties)),
	}
	for _, def := range s.Definitions() {
		raw, ok := page.Properties[def.Name]
		if !ok {
			continue
		}
		rec.Properties[def.Name] = codec.Decode(def.Kind, raw)
	}

	if title, err := s.TitleProperty(); err == nil {
		if v, ok := rec.Properties[title].(string); ok && v != "" {
			rec.Title = v
		}
	}

	if def, ok := s.BooleanProperty(); ok {
		switch v := rec.Properties[def.Name].(type) {
		case bool:
			rec.Completed = v
		case string:
			rec.Completed = IsDoneName(v)
		}
	}
	return rec
}

// ToWritePayload encodes requested property values for the store.
//
// Keys the schema does not define are dropped. Empty strings are skipped,
// except for the title property so that callers can detect a missing title.
// Values that encode to nothing are omitted.
func ToWritePayload(s *schema.Schema, requested map[string]any) map[string]store.PropertyValue {
	title, _ := s.TitleProperty()
	out := make(map[string]store.PropertyValue, len(requested))
	for name, value := range requested {
		def, ok := s.Lookup(name)
		if !ok {
			continue
		}
		if str, isStr := value.(string); isStr && str == "" && name != title {
			continue
		}
		if pv := codec.Encode(def, value); pv != nil {
			out[name] = *pv
		}
	}
	return out
}

// ApplyCompletedFlag writes completed to the schema's boolean property,
// overriding any value already in payload. It is a no-op when completed is nil
// or the schema has no boolean property.
//
// A status property gets the first done-like choice when completed is true.
// Otherwise it gets the first choice that is not done-like, falling back to the
// first done-like choice when every choice is done-like. With no done-like
// choice, completed=true writes the first declared choice. A status property
// with no choices at all is left as it is in payload.
func ApplyCompletedFlag(s *schema.Schema, completed *bool, payload map[string]store.PropertyValue) map[string]store.PropertyValue {
	if completed == nil {
		return payload
	}
	def, ok := s.BooleanProperty()
	if !ok {
		return payload
	}
	if payload == nil {
		payload = make(map[string]store.PropertyValue, 1)
	}

	switch def.Kind {
	case models.KindCheckbox:
		payload[def.Name] = store.PropertyValue{Type: store.TypeCheckbox, Checkbox: *completed}
	case models.KindStatus:
		var done, notDone []string
		for _, c := range def.Choices {
			if IsDoneName(c) {
				done = append(done, c)
			} else {
				notDone = append(notDone, c)
			}
		}
		if len(def.Choices) == 0 {
			return payload
		}
		pick := def.Choices[0]
		switch {
		case *completed && len(done) > 0:
			pick = done[0]
		case !*completed && len(notDone) > 0:
			pick = notDone[0]
		}
		payload[def.Name] = store.PropertyValue{Type: store.TypeStatus, Status: &store.Option{Name: pick}}
	}
	return payload
}
