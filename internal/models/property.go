// Package models defines the domain types for Ansuz.
package models

import (
	"fmt"
	"strings"
)

// Kind is the declared type of one external property.
type Kind int

const (
	KindOther Kind = iota
	KindTitle
	KindText
	KindSelect
	KindMultiSelect
	KindCheckbox
	KindStatus
	KindDate
	KindURL
	KindNumber

	// KindTotal is the number of kinds defined.
	KindTotal = int(iota)
)

var kindNames = [KindTotal]string{
	KindOther:       "other",
	KindTitle:       "title",
	KindText:        "rich_text",
	KindSelect:      "select",
	KindMultiSelect: "multi_select",
	KindCheckbox:    "checkbox",
	KindStatus:      "status",
	KindDate:        "date",
	KindURL:         "url",
	KindNumber:      "number",
}

// ParseKind maps an external wire type name to a Kind.
// Unrecognized names map to KindOther.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if Kind(k) != KindOther && n == name {
			return Kind(k)
		}
	}
	return KindOther
}

// String returns the external wire name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= KindTotal {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// HasChoices reports whether the kind declares a list of options.
func (k Kind) HasChoices() bool {
	return k == KindSelect || k == KindMultiSelect || k == KindStatus
}

// BooleanLike reports whether the kind can back the canonical completed flag.
func (k Kind) BooleanLike() bool {
	return k == KindCheckbox || k == KindStatus
}

// PropertyDefinition describes one external property (column).
type PropertyDefinition struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Choices []string `json:"choices,omitempty"`
}
