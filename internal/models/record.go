package models

import "time"

// UntitledRecord is the display title used when a record's title is empty.
const UntitledRecord = "Untitled"

// Record is the store-agnostic representation of one task.
//
// Properties values are JSON-native: string, float64, bool, nil or []string.
// Title and Completed are projections of Properties through the schema.
type Record struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Title      string         `json:"title"`
	Completed  bool           `json:"completed"`
	Properties map[string]any `json:"properties"`
}
