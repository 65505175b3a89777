package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// GroupService handles business logic for entry groups
type GroupService struct {
	groupRepo      domain.GroupRepository
	eventPublisher websocket.EventPublisher
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo domain.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *GroupService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *GroupService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateGroup creates a new group
func (s *GroupService) CreateGroup(ctx context.Context, userID string, name string, icon *string) (*domain.Group, error) {
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

	group := &domain.Group{
		UserID: userID,
		Name:   name,
		Icon:   icon,
	}

	created, err := s.groupRepo.Create(ctx, group)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", created.ID.String()).
		Str("name", created.Name).
		Msg("Group created")

	s.publishEvent(userID, websocket.GroupCreated(created))

	return created, nil
}

// GetGroup retrieves a single group by ID
func (s *GroupService) GetGroup(ctx context.Context, userID string, id uuid.UUID) (*domain.Group, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.groupRepo.GetByID(ctx, userID, id)
}

// ListGroups retrieves all groups for a user
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*domain.Group, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.groupRepo.ListByUser(ctx, userID)
}

// DeleteGroup soft-deletes a group. Entries keep their group reference; the
// projection resolves it to a nil name from then on.
func (s *GroupService) DeleteGroup(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.groupRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", id.String()).
		Msg("Group deleted")

	s.publishEvent(userID, websocket.GroupDeleted(map[string]string{"id": id.String()}))

	return nil
}
