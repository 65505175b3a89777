package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OccurrenceRef identifies one feed occurrence for mutation. For a standalone
// entry only EntryID is set. For a series occurrence RecurringConfigID, Date
// and Index come from the projected feed; EntryID is the backing replacement
// row when the occurrence is already materialized, and ExclusionID the
// modification exclusion that materialized it.
type OccurrenceRef struct {
	EntryID           *uuid.UUID `json:"entryId,omitempty"`
	RecurringConfigID *uuid.UUID `json:"recurringConfigId,omitempty"`
	ExclusionID       *uuid.UUID `json:"exclusionId,omitempty"`
	Date              time.Time  `json:"date"`
	Index             int        `json:"index"`
}

// MutationOptions tweaks how a mutation reports itself
type MutationOptions struct {
	// SkipRefresh suppresses the feed.refreshed event, for callers chaining
	// several mutations that refresh once at the end
	SkipRefresh bool
}

// EditOccurrenceInput carries the editable fields of an occurrence
type EditOccurrenceInput struct {
	Name               string
	Amount             decimal.Decimal
	GroupID            *uuid.UUID
	TagID              *uuid.UUID
	ApplyToSubsequents bool
}

// MutationService mutates feed occurrences copy-on-write: series occurrences
// are never edited in place; they are materialized into replacement entries
// referenced by modification exclusions, and series-wide edits split the
// series into a truncated old config and a new one. The stored configs,
// entries and exclusions are the only state; the feed is re-projected after
// every mutation.
type MutationService struct {
	entryRepo       domain.EntryRepository
	configRepo      domain.RecurringConfigRepository
	exclusionRepo   domain.ExclusionRepository
	maintenanceRepo domain.MaintenanceRepository
	eventPublisher  websocket.EventPublisher
}

// NewMutationService creates a new MutationService
func NewMutationService(
	entryRepo domain.EntryRepository,
	configRepo domain.RecurringConfigRepository,
	exclusionRepo domain.ExclusionRepository,
	maintenanceRepo domain.MaintenanceRepository,
) *MutationService {
	return &MutationService{
		entryRepo:       entryRepo,
		configRepo:      configRepo,
		exclusionRepo:   exclusionRepo,
		maintenanceRepo: maintenanceRepo,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *MutationService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *MutationService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

func (s *MutationService) refreshFeed(userID string, opts MutationOptions) {
	if !opts.SkipRefresh {
		s.publishEvent(userID, websocket.FeedRefreshed())
	}
}

// validateSeriesRef checks that a ref carries enough to address a series
// occurrence
func validateSeriesRef(ref OccurrenceRef) error {
	if ref.RecurringConfigID == nil || ref.Date.IsZero() || ref.Index < 1 {
		return domain.ErrMissingOccurrence
	}
	return nil
}

// anchorEntry returns the series' anchor: the earliest-created entry of the
// config
func (s *MutationService) anchorEntry(ctx context.Context, userID string, configID uuid.UUID) (*domain.Entry, error) {
	entries, err := s.entryRepo.ListByRecurringIDs(ctx, userID, []uuid.UUID{configID})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return entries[0], nil
}

// materializeOccurrence copies the series anchor into a concrete replacement
// entry for one occurrence and records the modification exclusion pointing at
// it. mutate adjusts the copy before it is stored.
func (s *MutationService) materializeOccurrence(
	ctx context.Context,
	userID string,
	configID uuid.UUID,
	date time.Time,
	mutate func(*domain.Entry),
) (*domain.Entry, error) {
	anchor, err := s.anchorEntry(ctx, userID, configID)
	if err != nil {
		return nil, err
	}

	replacement := &domain.Entry{
		UserID:       userID,
		Name:         anchor.Name,
		Type:         anchor.Type,
		Amount:       anchor.Amount,
		CurrencyCode: anchor.CurrencyCode,
		Date:         util.NormalizeDate(date),
		Fullfilled:   anchor.Fullfilled,
		RecurringID:  &configID,
		GroupID:      anchor.GroupID,
		TagID:        anchor.TagID,
	}
	if mutate != nil {
		mutate(replacement)
	}

	created, err := s.entryRepo.Create(ctx, replacement)
	if err != nil {
		return nil, err
	}

	_, err = s.exclusionRepo.Create(ctx, &domain.Exclusion{
		UserID:          userID,
		RecurringID:     configID,
		Date:            util.NormalizeDate(date),
		Reason:          domain.ExclusionReasonModification,
		ModifiedEntryID: &created.ID,
	})
	if err != nil {
		// The replacement without its exclusion would be invisible to the
		// projection; remove it again.
		if delErr := s.entryRepo.Delete(ctx, userID, created.ID); delErr != nil {
			log.Error().
				Err(delErr).
				Str("user_id", userID).
				Str("entry_id", created.ID.String()).
				Msg("Failed to roll back replacement entry after exclusion create failure")
		}
		return nil, err
	}

	return created, nil
}

// ToggleFulfilled flips the fulfilled flag of one occurrence. A standalone
// entry or an already-materialized occurrence is updated in place; a
// template-projected occurrence is materialized first.
func (s *MutationService) ToggleFulfilled(ctx context.Context, userID string, ref OccurrenceRef, opts MutationOptions) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	// Backing row exists: standalone entry or replacement entry
	if ref.EntryID != nil {
		entry, err := s.entryRepo.GetByID(ctx, userID, *ref.EntryID)
		if err != nil {
			return err
		}
		entry.Fullfilled = !entry.Fullfilled
		if _, err := s.entryRepo.Update(ctx, entry); err != nil {
			return err
		}

		log.Info().
			Str("user_id", userID).
			Str("entry_id", entry.ID.String()).
			Bool("fullfilled", entry.Fullfilled).
			Msg("Entry fulfilled toggled")

		s.refreshFeed(userID, opts)
		return nil
	}

	if err := validateSeriesRef(ref); err != nil {
		return err
	}

	created, err := s.materializeOccurrence(ctx, userID, *ref.RecurringConfigID, ref.Date, func(e *domain.Entry) {
		e.Fullfilled = !e.Fullfilled
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("recurring_id", ref.RecurringConfigID.String()).
		Str("entry_id", created.ID.String()).
		Str("date", ref.Date.Format("2006-01-02")).
		Bool("fullfilled", created.Fullfilled).
		Msg("Occurrence materialized by toggle")

	s.refreshFeed(userID, opts)
	return nil
}

// EditOccurrence changes name, amount, group and tag of one occurrence, or of
// the occurrence and all subsequent ones when ApplyToSubsequents is set on a
// series occurrence.
func (s *MutationService) EditOccurrence(ctx context.Context, userID string, ref OccurrenceRef, input EditOccurrenceInput, opts MutationOptions) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	if input.Amount.IsZero() || input.Amount.IsNegative() {
		return domain.ErrInvalidAmount
	}

	applyEdit := func(e *domain.Entry) {
		e.Name = name
		e.Amount = input.Amount
		e.GroupID = input.GroupID
		e.TagID = input.TagID
	}

	// Series-wide edit splits the series at this occurrence
	if input.ApplyToSubsequents && ref.RecurringConfigID != nil {
		if err := validateSeriesRef(ref); err != nil {
			return err
		}
		if err := s.splitSeries(ctx, userID, ref, applyEdit); err != nil {
			return err
		}
		s.refreshFeed(userID, opts)
		return nil
	}

	if ref.EntryID != nil {
		entry, err := s.entryRepo.GetByID(ctx, userID, *ref.EntryID)
		if err != nil {
			return err
		}
		applyEdit(entry)
		if _, err := s.entryRepo.Update(ctx, entry); err != nil {
			return err
		}

		log.Info().
			Str("user_id", userID).
			Str("entry_id", entry.ID.String()).
			Msg("Entry edited")

		s.refreshFeed(userID, opts)
		return nil
	}

	if err := validateSeriesRef(ref); err != nil {
		return err
	}

	created, err := s.materializeOccurrence(ctx, userID, *ref.RecurringConfigID, ref.Date, applyEdit)
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("recurring_id", ref.RecurringConfigID.String()).
		Str("entry_id", created.ID.String()).
		Str("date", ref.Date.Format("2006-01-02")).
		Msg("Occurrence materialized by edit")

	s.refreshFeed(userID, opts)
	return nil
}

// splitSeries cuts a series in two at the given occurrence: the old config is
// truncated to end before it and a new config starting at it carries the
// edited details forward. The occurrences before the split keep the old
// template and any per-occurrence overrides they already had.
func (s *MutationService) splitSeries(ctx context.Context, userID string, ref OccurrenceRef, applyEdit func(*domain.Entry)) error {
	configID := *ref.RecurringConfigID
	splitDate := util.NormalizeDate(ref.Date)

	config, err := s.configRepo.GetByID(ctx, userID, configID)
	if err != nil {
		return err
	}

	anchor, err := s.anchorEntry(ctx, userID, configID)
	if err != nil {
		return err
	}

	// Overrides on or after the split belong to the old series' dropped tail
	exclusions, err := s.exclusionRepo.ListByRecurringIDs(ctx, userID, []uuid.UUID{configID})
	if err != nil {
		return err
	}

	// A materialized split occurrence carries its current state (fulfilled
	// flag included) on its replacement row, not the template; that row seeds
	// the new series' anchor.
	source := anchor
	replacementID := ref.EntryID
	if replacementID == nil {
		for _, ex := range exclusions {
			if ex.Reason == domain.ExclusionReasonModification &&
				ex.ModifiedEntryID != nil &&
				util.NormalizeDate(ex.Date).Equal(splitDate) {
				replacementID = ex.ModifiedEntryID
				break
			}
		}
	}
	if replacementID != nil {
		replacement, err := s.entryRepo.GetByID(ctx, userID, *replacementID)
		switch {
		case err == nil:
			source = replacement
		case !errors.Is(err, domain.ErrEntryNotFound):
			return err
		}
	}

	for _, ex := range exclusions {
		if util.NormalizeDate(ex.Date).Before(splitDate) {
			continue
		}
		if err := s.exclusionRepo.Delete(ctx, userID, ex.ID); err != nil {
			return fmt.Errorf("series split incomplete, removing tail exclusion: %w", err)
		}
	}

	// The old series must not generate the split occurrence anymore
	_, err = s.exclusionRepo.Create(ctx, &domain.Exclusion{
		UserID:      userID,
		RecurringID: configID,
		Date:        splitDate,
		Reason:      domain.ExclusionReasonDeletion,
	})
	if err != nil {
		return fmt.Errorf("series split incomplete, excluding split occurrence: %w", err)
	}

	oldInterval := config.Interval
	oldEndDate := config.EndDate

	if ref.Index <= 1 {
		// Splitting at the first occurrence leaves nothing behind the split;
		// retire the old config entirely.
		if err := s.configRepo.Delete(ctx, userID, configID); err != nil {
			return fmt.Errorf("series split incomplete, retiring old config: %w", err)
		}
	} else {
		config.Interval = int32(ref.Index - 1)
		config.EndDate = &splitDate
		if _, err := s.configRepo.Update(ctx, config); err != nil {
			return fmt.Errorf("series split incomplete, truncating old config: %w", err)
		}
	}

	newInterval := int32(0)
	if oldInterval > 0 {
		newInterval = oldInterval - int32(ref.Index) + 1
	}

	newConfig, err := s.configRepo.Create(ctx, &domain.RecurringConfig{
		UserID:    userID,
		Frequency: config.Frequency,
		Interval:  newInterval,
		Every:     config.Every,
		StartDate: splitDate,
		EndDate:   oldEndDate,
	})
	if err != nil {
		return fmt.Errorf("series split incomplete, creating new config: %w", err)
	}

	newAnchor := &domain.Entry{
		UserID:       userID,
		Name:         source.Name,
		Type:         source.Type,
		Amount:       source.Amount,
		CurrencyCode: source.CurrencyCode,
		Date:         splitDate,
		Fullfilled:   source.Fullfilled,
		RecurringID:  &newConfig.ID,
		GroupID:      source.GroupID,
		TagID:        source.TagID,
	}
	applyEdit(newAnchor)

	createdAnchor, err := s.entryRepo.Create(ctx, newAnchor)
	if err != nil {
		return fmt.Errorf("series split incomplete, creating new anchor: %w", err)
	}

	// Materialize the split occurrence itself so it stays individually
	// editable without another copy step
	_, err = s.exclusionRepo.Create(ctx, &domain.Exclusion{
		UserID:          userID,
		RecurringID:     newConfig.ID,
		Date:            splitDate,
		Reason:          domain.ExclusionReasonModification,
		ModifiedEntryID: &createdAnchor.ID,
	})
	if err != nil {
		return fmt.Errorf("series split incomplete, materializing split occurrence: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("old_recurring_id", configID.String()).
		Str("new_recurring_id", newConfig.ID.String()).
		Str("split_date", splitDate.Format("2006-01-02")).
		Int("index", ref.Index).
		Msg("Series split")

	return nil
}

// DeleteOccurrence removes one occurrence from the feed, or the occurrence
// and all subsequent ones when withSubsequents is set on a series occurrence.
// Standalone entries are soft-deleted; series occurrences are excluded.
func (s *MutationService) DeleteOccurrence(ctx context.Context, userID string, ref OccurrenceRef, withSubsequents bool, opts MutationOptions) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	// Standalone entry
	if ref.RecurringConfigID == nil {
		if ref.EntryID == nil {
			return domain.ErrMissingOccurrence
		}
		if err := s.entryRepo.Delete(ctx, userID, *ref.EntryID); err != nil {
			return err
		}

		log.Info().
			Str("user_id", userID).
			Str("entry_id", ref.EntryID.String()).
			Msg("Entry deleted")

		s.refreshFeed(userID, opts)
		return nil
	}

	if err := validateSeriesRef(ref); err != nil {
		return err
	}

	if err := s.deleteSingleOccurrence(ctx, userID, ref); err != nil {
		return err
	}

	if withSubsequents {
		if err := s.truncateSeriesAfter(ctx, userID, ref); err != nil {
			return err
		}
	}

	s.refreshFeed(userID, opts)
	return nil
}

// deleteSingleOccurrence excludes one series occurrence: a materialized one
// has its modification exclusion flipped to a deletion, a template-projected
// one gets a fresh deletion exclusion.
func (s *MutationService) deleteSingleOccurrence(ctx context.Context, userID string, ref OccurrenceRef) error {
	if ref.ExclusionID != nil {
		if err := s.exclusionRepo.UpdateReason(ctx, userID, *ref.ExclusionID, domain.ExclusionReasonDeletion); err != nil {
			return err
		}

		log.Info().
			Str("user_id", userID).
			Str("exclusion_id", ref.ExclusionID.String()).
			Msg("Materialized occurrence deleted")

		return nil
	}

	_, err := s.exclusionRepo.Create(ctx, &domain.Exclusion{
		UserID:      userID,
		RecurringID: *ref.RecurringConfigID,
		Date:        util.NormalizeDate(ref.Date),
		Reason:      domain.ExclusionReasonDeletion,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("recurring_id", ref.RecurringConfigID.String()).
		Str("date", ref.Date.Format("2006-01-02")).
		Msg("Occurrence deleted")

	return nil
}

// truncateSeriesAfter ends the series at the given occurrence. Deleting from
// the first occurrence retires the whole config; otherwise the config is
// truncated to the occurrences strictly before it and exclusions dated after
// it are dropped as dead weight.
func (s *MutationService) truncateSeriesAfter(ctx context.Context, userID string, ref OccurrenceRef) error {
	configID := *ref.RecurringConfigID
	cutDate := util.NormalizeDate(ref.Date)

	exclusions, err := s.exclusionRepo.ListByRecurringIDs(ctx, userID, []uuid.UUID{configID})
	if err != nil {
		return err
	}

	if ref.Index <= 1 {
		for _, ex := range exclusions {
			if err := s.exclusionRepo.Delete(ctx, userID, ex.ID); err != nil {
				return fmt.Errorf("series delete incomplete, removing exclusion: %w", err)
			}
		}
		if err := s.configRepo.Delete(ctx, userID, configID); err != nil {
			return fmt.Errorf("series delete incomplete, retiring config: %w", err)
		}

		log.Info().
			Str("user_id", userID).
			Str("recurring_id", configID.String()).
			Msg("Series retired from first occurrence")

		return nil
	}

	for _, ex := range exclusions {
		if !util.NormalizeDate(ex.Date).After(cutDate) {
			continue
		}
		if err := s.exclusionRepo.Delete(ctx, userID, ex.ID); err != nil {
			return fmt.Errorf("series delete incomplete, removing tail exclusion: %w", err)
		}
	}

	config, err := s.configRepo.GetByID(ctx, userID, configID)
	if err != nil {
		return err
	}
	config.Interval = int32(ref.Index - 1)
	config.EndDate = &cutDate
	if _, err := s.configRepo.Update(ctx, config); err != nil {
		return fmt.Errorf("series delete incomplete, truncating config: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("recurring_id", configID.String()).
		Str("end_date", cutDate.Format("2006-01-02")).
		Int32("interval", config.Interval).
		Msg("Series truncated")

	return nil
}

// EraseAll permanently removes every entry, group, tag, recurring config and
// exclusion belonging to the user. Idempotent: erasing an empty account
// succeeds and leaves an empty feed.
func (s *MutationService) EraseAll(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.maintenanceRepo.EraseAll(ctx, userID); err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Msg("All account data erased")

	s.publishEvent(userID, websocket.AccountErased())
	s.publishEvent(userID, websocket.FeedRefreshed())

	return nil
}
