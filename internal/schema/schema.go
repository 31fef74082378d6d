// Package schema holds the external store's property definitions and the
// semantic roles derived from them.
package schema

import (
	"slices"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// Schema is an immutable, ordered set of property definitions together with
// the properties chosen as title and boolean flag.
type Schema struct {
	definitions []models.PropertyDefinition
	index       map[string]int
	title       string
	boolean     string
}

// New builds a Schema from raw definitions in the store's declared order.
// Duplicate names keep their first definition.
func New(raw []store.PropertySchema) *Schema {
	s := &Schema{index: make(map[string]int, len(raw))}
	for _, p := range raw {
		if _, dup := s.index[p.Name]; dup || p.Name == "" {
			continue
		}
		def := models.PropertyDefinition{Name: p.Name, Kind: models.ParseKind(p.Type)}
		if def.Kind.HasChoices() {
			opts := p.Options()
			def.Choices = make([]string, 0, len(opts))
			for _, o := range opts {
				def.Choices = append(def.Choices, o.Name)
			}
		}
		s.index[def.Name] = len(s.definitions)
		s.definitions = append(s.definitions, def)

		if s.title == "" && def.Kind == models.KindTitle {
			s.title = def.Name
		}
		if s.boolean == "" && def.Kind.BooleanLike() {
			s.boolean = def.Name
		}
	}
	return s
}

// Definitions returns a copy of the definitions in declared order.
func (s *Schema) Definitions() []models.PropertyDefinition {
	out := make([]models.PropertyDefinition, len(s.definitions))
	for i, d := range s.definitions {
		d.Choices = slices.Clone(d.Choices)
		out[i] = d
	}
	return out
}

// Lookup returns the definition with the given name.
func (s *Schema) Lookup(name string) (models.PropertyDefinition, bool) {
	i, ok := s.index[name]
	if !ok {
		return models.PropertyDefinition{}, false
	}
	return s.definitions[i], true
}

// TitleProperty returns the name of the title property.
// It returns apperr.ErrMissingTitleProperty when the schema declares none.
func (s *Schema) TitleProperty() (string, error) {
	if s.title == "" {
		return "", apperr.ErrMissingTitleProperty
	}
	return s.title, nil
}

// BooleanProperty returns the first checkbox or status property, if any.
func (s *Schema) BooleanProperty() (models.PropertyDefinition, bool) {
	if s.boolean == "" {
		return models.PropertyDefinition{}, false
	}
	return s.Lookup(s.boolean)
}

// Classification groups property names by semantic role.
type Classification struct {
	Title   string   `json:"title,omitempty"`
	Boolean string   `json:"boolean,omitempty"`
	Dates   []string `json:"dates"`
	Choices []string `json:"choices"`
	Numbers []string `json:"numbers"`
	Texts   []string `json:"texts"`
	Links   []string `json:"links"`
}

// Classify reports which properties play which role, in declared order.
func (s *Schema) Classify() Classification {
	c := Classification{
		Title:   s.title,
		Boolean: s.boolean,
		Dates:   []string{},
		Choices: []string{},
		Numbers: []string{},
		Texts:   []string{},
		Links:   []string{},
	}
	for _, d := range s.definitions {
		switch d.Kind {
		case models.KindDate:
			c.Dates = append(c.Dates, d.Name)
		case models.KindSelect, models.KindMultiSelect, models.KindStatus:
			c.Choices = append(c.Choices, d.Name)
		case models.KindNumber:
			c.Numbers = append(c.Numbers, d.Name)
		case models.KindText:
			c.Texts = append(c.Texts, d.Name)
		case models.KindURL:
			c.Links = append(c.Links, d.Name)
		}
	}
	return c
}
