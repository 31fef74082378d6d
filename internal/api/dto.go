package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
)

// TaskRequest is the request body for creating or updating a task.
// Properties are keyed by the store's property names; unknown names are ignored.
type TaskRequest struct {
	Properties map[string]any `json:"properties" example:"{\"Name\":\"Buy milk\",\"Tags\":[\"home\"]}"`
	Completed  *bool          `json:"completed,omitempty" example:"false"`
}

// ValidateUpdate requires something to change: properties, completed, or both.
func (r *TaskRequest) ValidateUpdate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Properties, validation.Required.When(r.Completed == nil).
			Error("properties or completed is required")),
	)
}

// Task is a task in API responses (aliased from the domain layer).
type Task = models.Record

// TaskListResponse wraps a task listing.
type TaskListResponse struct {
	Tasks []Task `json:"tasks" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// SchemaResponse describes the store's properties and their roles.
type SchemaResponse struct {
	Definitions    []models.PropertyDefinition `json:"definitions" validate:"required"`
	Classification schema.Classification       `json:"classification" validate:"required"`
}
