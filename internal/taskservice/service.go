package taskservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/translate"
)

// Task event kinds passed to a Publisher.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventArchived = "archived"
)

// Publisher receives a notification after each successful write.
type Publisher interface {
	PublishTaskEvent(kind, id string)
}

// Service exposes the external store as a task list.
type Service struct {
	gw     store.Gateway
	cache  *schema.Cache
	events Publisher
	logger *slog.Logger
}

// NewService creates a new task service. events may be nil.
func NewService(gw store.Gateway, cache *schema.Cache, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, cache: cache, events: events, logger: logger}
}

// Schema returns the cached store schema.
func (s *Service) Schema(ctx context.Context) (*schema.Schema, error) {
	return s.cache.Get(ctx)
}

// ListRecords returns every task, newest first.
func (s *Service) ListRecords(ctx context.Context) ([]models.Record, error) {
	sch, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := s.gw.QueryRecords(ctx, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRecordReadFailed, err)
	}
	out := make([]models.Record, 0, len(pages))
	for _, p := range pages {
		out = append(out, translate.ToUniform(sch, p))
	}
	return out, nil
}

// CreateRecord creates a task. The title property must be present and
// non-empty; completed, when set, is applied to the boolean property.
func (s *Service) CreateRecord(ctx context.Context, properties map[string]any, completed *bool) (*models.Record, error) {
	sch, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	title, err := sch.TitleProperty()
	if err != nil {
		s.logger.Error("cannot create task", slog.String("error", err.Error()))
		return nil, err
	}

	payload := translate.ToWritePayload(sch, properties)
	if !hasText(payload[title].Title) {
		return nil, fmt.Errorf("%w: property %q is empty", apperr.ErrMissingTitleValue, title)
	}
	payload = translate.ApplyCompletedFlag(sch, completed, payload)

	page, err := s.gw.CreateRecord(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRecordWriteFailed, err)
	}
	rec := translate.ToUniform(sch, *page)
	s.publish(EventCreated, rec.ID)
	return &rec, nil
}

// UpdateRecord writes properties and the completed flag to an existing task.
// A request that translates to nothing is acknowledged without a store call.
func (s *Service) UpdateRecord(ctx context.Context, id string, properties map[string]any, completed *bool) error {
	sch, err := s.cache.Get(ctx)
	if err != nil {
		return err
	}
	payload := translate.ToWritePayload(sch, properties)
	payload = translate.ApplyCompletedFlag(sch, completed, payload)
	if len(payload) == 0 {
		s.logger.Debug("update has nothing to write", slog.String("id", id))
		return nil
	}
	if err := s.gw.UpdateRecord(ctx, id, payload); err != nil {
		return writeFailed(err)
	}
	s.publish(EventUpdated, id)
	return nil
}

// ArchiveRecord archives a task.
func (s *Service) ArchiveRecord(ctx context.Context, id string) error {
	if err := s.gw.ArchiveRecord(ctx, id); err != nil {
		return writeFailed(err)
	}
	s.publish(EventArchived, id)
	return nil
}

func (s *Service) publish(kind, id string) {
	if s.events != nil {
		s.events.PublishTaskEvent(kind, id)
	}
}

// writeFailed wraps a gateway error, letting an unknown id surface as not found.
func writeFailed(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", apperr.ErrRecordWriteFailed, err)
}

// hasText reports whether the encoded title carries any text. Values that
// do not encode as text never reach the payload.
func hasText(runs []store.RichText) bool {
	for _, r := range runs {
		if r.Plain() != "" {
			return true
		}
	}
	return false
}
