package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/taskservice"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *taskservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListTasks handles GET /api/tasks.
//
// The reply carries a strong ETag; a matching If-None-Match yields 304.
//
//	@Summary		List tasks, newest first
//	@Tags			tasks
//	@Produce		json
//	@Param			If-None-Match	header		string	false	"ETag from a previous listing"
//	@Success		200				{object}	TaskListResponse
//	@Success		304				"Not modified"
//	@Failure		502				{object}	errResponse
//	@Failure		503				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListRecords(r.Context())
	if err != nil {
		writeServiceError(w, "list tasks", err)
		return
	}
	body, err := json.Marshal(TaskListResponse{Tasks: tasks, Total: len(tasks)})
	if err != nil {
		writeServiceError(w, "list tasks", err)
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

// CreateTask handles POST /api/tasks.
//
//	@Summary		Create a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TaskRequest	true	"Task to create; the title property is required"
//	@Success		201		{object}	Task
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTaskRequest(w, r)
	if err != nil {
		writeServiceError(w, "create task", err)
		return
	}
	task, err := h.svc.CreateRecord(r.Context(), req.Properties, req.Completed)
	if err != nil {
		writeServiceError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/tasks/{id}.
//
//	@Summary		Update task properties and/or the completed flag
//	@Tags			tasks
//	@Accept			json
//	@Param			id		path	string		true	"Task id"
//	@Param			body	body	TaskRequest	true	"Properties to write"
//	@Success		204		"Task updated"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [patch]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := decodeTaskRequest(w, r)
	if err != nil {
		writeServiceError(w, "update task", err, slog.String("id", id))
		return
	}
	if err := req.ValidateUpdate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.UpdateRecord(r.Context(), id, req.Properties, req.Completed); err != nil {
		writeServiceError(w, "update task", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ArchiveTask handles DELETE /api/tasks/{id}.
//
//	@Summary		Archive a task
//	@Tags			tasks
//	@Param			id	path	string	true	"Task id"
//	@Success		204	"Task archived"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [delete]
func (h *Handler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.ArchiveRecord(r.Context(), id); err != nil {
		writeServiceError(w, "archive task", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Schema handles GET /api/schema.
//
//	@Summary		Describe the store's properties
//	@Tags			schema
//	@Produce		json
//	@Success		200	{object}	SchemaResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schema [get]
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Schema(r.Context())
	if err != nil {
		writeServiceError(w, "describe schema", err)
		return
	}
	writeJSON(w, http.StatusOK, SchemaResponse{
		Definitions:    s.Definitions(),
		Classification: s.Classify(),
	})
}

func decodeTaskRequest(w http.ResponseWriter, r *http.Request) (*TaskRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body", apperr.ErrInvalidRequest)
	}
	return &req, nil
}
