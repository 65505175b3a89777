package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreateEntryInput carries the fields for creating a standalone entry
type CreateEntryInput struct {
	Name         string
	Type         domain.EntryType
	Amount       decimal.Decimal
	CurrencyCode string
	Date         time.Time
	Fullfilled   bool
	GroupID      *uuid.UUID
	TagID        *uuid.UUID
}

// CreateRecurringEntryInput carries the fields for creating a recurring
// series: the anchor entry's details plus the recurrence rule
type CreateRecurringEntryInput struct {
	Name         string
	Type         domain.EntryType
	Amount       decimal.Decimal
	CurrencyCode string
	StartDate    time.Time
	Fullfilled   bool
	GroupID      *uuid.UUID
	TagID        *uuid.UUID
	Frequency    domain.Frequency
	Interval     int32
	Every        int32
	EndDate      *time.Time
}

// RecurringSeries pairs a created recurring config with its anchor entry
type RecurringSeries struct {
	Config *domain.RecurringConfig `json:"config"`
	Anchor *domain.Entry           `json:"anchor"`
}

// EntryService handles business logic for creating entries and recurring series
type EntryService struct {
	entryRepo      domain.EntryRepository
	configRepo     domain.RecurringConfigRepository
	groupRepo      domain.GroupRepository
	tagRepo        domain.TagRepository
	eventPublisher websocket.EventPublisher
}

// NewEntryService creates a new EntryService
func NewEntryService(
	entryRepo domain.EntryRepository,
	configRepo domain.RecurringConfigRepository,
	groupRepo domain.GroupRepository,
	tagRepo domain.TagRepository,
) *EntryService {
	return &EntryService{
		entryRepo:  entryRepo,
		configRepo: configRepo,
		groupRepo:  groupRepo,
		tagRepo:    tagRepo,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *EntryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *EntryService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// validateEntryFields validates the shared entry fields and returns the
// trimmed name
func (s *EntryService) validateEntryFields(ctx context.Context, userID string, name string, entryType domain.EntryType, amount decimal.Decimal, currencyCode string, groupID, tagID *uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	if entryType != domain.EntryTypeIncome && entryType != domain.EntryTypeExpense {
		return "", domain.ErrInvalidEntryType
	}
	if amount.IsZero() || amount.IsNegative() {
		return "", domain.ErrInvalidAmount
	}
	if len(currencyCode) != 3 {
		return "", domain.ErrInvalidCurrency
	}

	// References must exist at creation time. They may dangle later (soft
	// deletes), which the projection tolerates.
	if groupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, userID, *groupID); err != nil {
			return "", err
		}
	}
	if tagID != nil {
		if _, err := s.tagRepo.GetByID(ctx, userID, *tagID); err != nil {
			return "", err
		}
	}

	return name, nil
}

// CreateEntry creates a standalone (non-recurring) entry
func (s *EntryService) CreateEntry(ctx context.Context, userID string, input CreateEntryInput) (*domain.Entry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	name, err := s.validateEntryFields(ctx, userID, input.Name, input.Type, input.Amount, input.CurrencyCode, input.GroupID, input.TagID)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		UserID:       userID,
		Name:         name,
		Type:         input.Type,
		Amount:       input.Amount,
		CurrencyCode: strings.ToUpper(input.CurrencyCode),
		Date:         util.NormalizeDate(input.Date),
		Fullfilled:   input.Fullfilled,
		GroupID:      input.GroupID,
		TagID:        input.TagID,
	}

	created, err := s.entryRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("entry_id", created.ID.String()).
		Str("name", created.Name).
		Msg("Entry created")

	s.publishEvent(userID, websocket.EntryCreated(created))
	s.publishEvent(userID, websocket.FeedRefreshed())

	return created, nil
}

// CreateRecurringEntry creates a recurring config together with its anchor
// entry. The anchor carries the series' display details and is dated at the
// series start.
func (s *EntryService) CreateRecurringEntry(ctx context.Context, userID string, input CreateRecurringEntryInput) (*RecurringSeries, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	name, err := s.validateEntryFields(ctx, userID, input.Name, input.Type, input.Amount, input.CurrencyCode, input.GroupID, input.TagID)
	if err != nil {
		return nil, err
	}

	switch input.Frequency {
	case domain.FrequencyWeek, domain.FrequencyMonth, domain.FrequencyYear:
	default:
		return nil, domain.ErrInvalidFrequency
	}
	if input.Every < 1 {
		return nil, domain.ErrInvalidEvery
	}
	if input.Interval < 0 {
		return nil, domain.ErrInvalidInterval
	}

	startDate := util.NormalizeDate(input.StartDate)

	var endDate *time.Time
	if input.EndDate != nil {
		normalized := util.NormalizeDate(*input.EndDate)
		endDate = &normalized
	}

	config := &domain.RecurringConfig{
		UserID:    userID,
		Frequency: input.Frequency,
		Interval:  input.Interval,
		Every:     input.Every,
		StartDate: startDate,
		EndDate:   endDate,
	}

	createdConfig, err := s.configRepo.Create(ctx, config)
	if err != nil {
		return nil, err
	}

	anchor := &domain.Entry{
		UserID:       userID,
		Name:         name,
		Type:         input.Type,
		Amount:       input.Amount,
		CurrencyCode: strings.ToUpper(input.CurrencyCode),
		Date:         startDate,
		Fullfilled:   input.Fullfilled,
		RecurringID:  &createdConfig.ID,
		GroupID:      input.GroupID,
		TagID:        input.TagID,
	}

	createdAnchor, err := s.entryRepo.Create(ctx, anchor)
	if err != nil {
		// Without the anchor the series has no details to project; don't
		// leave the config behind.
		if delErr := s.configRepo.Delete(ctx, userID, createdConfig.ID); delErr != nil {
			log.Error().
				Err(delErr).
				Str("user_id", userID).
				Str("recurring_id", createdConfig.ID.String()).
				Msg("Failed to roll back recurring config after anchor create failure")
		}
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("recurring_id", createdConfig.ID.String()).
		Str("entry_id", createdAnchor.ID.String()).
		Str("frequency", string(createdConfig.Frequency)).
		Int32("interval", createdConfig.Interval).
		Msg("Recurring series created")

	s.publishEvent(userID, websocket.RecurringCreated(&RecurringSeries{Config: createdConfig, Anchor: createdAnchor}))
	s.publishEvent(userID, websocket.FeedRefreshed())

	return &RecurringSeries{Config: createdConfig, Anchor: createdAnchor}, nil
}

// ListRecurring retrieves all recurring configs for a user
func (s *EntryService) ListRecurring(ctx context.Context, userID string) ([]*domain.RecurringConfig, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.configRepo.ListByUser(ctx, userID)
}
