package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// TagService handles business logic for entry tags
type TagService struct {
	tagRepo        domain.TagRepository
	eventPublisher websocket.EventPublisher
}

// NewTagService creates a new TagService
func NewTagService(tagRepo domain.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *TagService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TagService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateTag creates a new tag
func (s *TagService) CreateTag(ctx context.Context, userID string, name string, color *string, suggestID *string) (*domain.Tag, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	tag := &domain.Tag{
		UserID:    userID,
		Name:      name,
		Color:     color,
		SuggestID: suggestID,
	}

	created, err := s.tagRepo.Create(ctx, tag)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("tag_id", created.ID.String()).
		Str("name", created.Name).
		Msg("Tag created")

	s.publishEvent(userID, websocket.TagCreated(created))

	return created, nil
}

// ListTags retrieves all tags for a user
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.tagRepo.ListByUser(ctx, userID)
}

// UpdateTagColor sets or clears a tag's color
func (s *TagService) UpdateTagColor(ctx context.Context, userID string, id uuid.UUID, color *string) (*domain.Tag, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	if err := s.tagRepo.UpdateColor(ctx, userID, id, color); err != nil {
		return nil, err
	}

	updated, err := s.tagRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("tag_id", id.String()).
		Msg("Tag color updated")

	s.publishEvent(userID, websocket.TagUpdated(updated))

	return updated, nil
}

// DeleteTag soft-deletes a tag. Entries keep their tag reference; the
// projection resolves it to a nil name from then on.
func (s *TagService) DeleteTag(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.tagRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("tag_id", id.String()).
		Msg("Tag deleted")

	s.publishEvent(userID, websocket.TagDeleted(map[string]string{"id": id.String()}))

	return nil
}
