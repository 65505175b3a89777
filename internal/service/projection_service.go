package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// DefaultProjectionMonths is how far ahead unbounded series are expanded
// when the caller doesn't pass an explicit horizon
const DefaultProjectionMonths = 12

// ProjectionService builds the populated feed: standalone entries merged with
// recurring series expanded occurrence by occurrence, with exclusions applied.
// The feed is recomputed from scratch on every call and never persisted.
type ProjectionService struct {
	entryRepo     domain.EntryRepository
	groupRepo     domain.GroupRepository
	tagRepo       domain.TagRepository
	configRepo    domain.RecurringConfigRepository
	exclusionRepo domain.ExclusionRepository
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(
	entryRepo domain.EntryRepository,
	groupRepo domain.GroupRepository,
	tagRepo domain.TagRepository,
	configRepo domain.RecurringConfigRepository,
	exclusionRepo domain.ExclusionRepository,
) *ProjectionService {
	return &ProjectionService{
		entryRepo:     entryRepo,
		groupRepo:     groupRepo,
		tagRepo:       tagRepo,
		configRepo:    configRepo,
		exclusionRepo: exclusionRepo,
	}
}

// DefaultHorizon returns the feed horizon used when none is given
func DefaultHorizon() time.Time {
	return util.NormalizeDate(time.Now().UTC().AddDate(0, DefaultProjectionMonths, 0))
}

// BuildFeed returns the user's complete projected feed up to the horizon,
// sorted by date with same-date items ordered by creation time. A zero
// horizon means DefaultHorizon. Finite series are always expanded in full;
// the horizon only caps unbounded ones.
func (s *ProjectionService) BuildFeed(ctx context.Context, userID string, horizon time.Time) ([]*domain.PopulatedEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if horizon.IsZero() {
		horizon = DefaultHorizon()
	}
	horizon = util.NormalizeDate(horizon)

	groups, err := s.groupRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	groupsByID := make(map[uuid.UUID]*domain.Group, len(groups))
	for _, g := range groups {
		groupsByID[g.ID] = g
	}

	tags, err := s.tagRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tagsByID := make(map[uuid.UUID]*domain.Tag, len(tags))
	for _, t := range tags {
		tagsByID[t.ID] = t
	}

	standalone, err := s.entryRepo.ListStandalone(ctx, userID)
	if err != nil {
		return nil, err
	}

	configs, err := s.configRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	configIDs := make([]uuid.UUID, 0, len(configs))
	for _, c := range configs {
		configIDs = append(configIDs, c.ID)
	}

	var seriesEntries []*domain.Entry
	var exclusions []*domain.Exclusion
	if len(configIDs) > 0 {
		seriesEntries, err = s.entryRepo.ListByRecurringIDs(ctx, userID, configIDs)
		if err != nil {
			return nil, err
		}
		exclusions, err = s.exclusionRepo.ListByRecurringIDs(ctx, userID, configIDs)
		if err != nil {
			return nil, err
		}
	}

	// Anchor = earliest-created entry per config (ListByRecurringIDs is
	// ordered by creation time). Every entry is also indexed by id for
	// modification exclusion lookups.
	anchorsByConfig := make(map[uuid.UUID]*domain.Entry)
	entriesByID := make(map[uuid.UUID]*domain.Entry, len(seriesEntries))
	for _, e := range seriesEntries {
		entriesByID[e.ID] = e
		if _, ok := anchorsByConfig[*e.RecurringID]; !ok {
			anchorsByConfig[*e.RecurringID] = e
		}
	}

	exclusionsByConfig := make(map[uuid.UUID][]*domain.Exclusion)
	for _, ex := range exclusions {
		exclusionsByConfig[ex.RecurringID] = append(exclusionsByConfig[ex.RecurringID], ex)
	}

	feed := make([]*domain.PopulatedEntry, 0, len(standalone))
	for _, e := range standalone {
		id := e.ID
		feed = append(feed, &domain.PopulatedEntry{
			ID:      &id,
			Date:    util.NormalizeDate(e.Date),
			Details: s.entryDetails(e, groupsByID, tagsByID),
		})
	}

	for _, config := range configs {
		anchor := anchorsByConfig[config.ID]
		if anchor == nil {
			// A series without its anchor has no details to project.
			log.Warn().
				Str("user_id", userID).
				Str("recurring_id", config.ID.String()).
				Msg("Recurring config has no anchor entry, skipping")
			continue
		}
		feed = append(feed, s.resolveSeries(config, anchor, exclusionsByConfig[config.ID], entriesByID, groupsByID, tagsByID, horizon)...)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].Date.Equal(feed[j].Date) {
			return feed[i].Date.Before(feed[j].Date)
		}
		return feed[i].Details.CreatedAt.Before(feed[j].Details.CreatedAt)
	})

	return feed, nil
}

// resolveSeries expands one recurring config into populated occurrences,
// applying exclusions by exact date match. A deletion exclusion drops the
// occurrence; a modification exclusion swaps in the replacement entry's
// details. A modification whose replacement entry is missing is treated as a
// deletion.
func (s *ProjectionService) resolveSeries(
	config *domain.RecurringConfig,
	anchor *domain.Entry,
	exclusions []*domain.Exclusion,
	entriesByID map[uuid.UUID]*domain.Entry,
	groupsByID map[uuid.UUID]*domain.Group,
	tagsByID map[uuid.UUID]*domain.Tag,
	horizon time.Time,
) []*domain.PopulatedEntry {
	exclusionByDate := make(map[time.Time]*domain.Exclusion, len(exclusions))
	for _, ex := range exclusions {
		date := util.NormalizeDate(ex.Date)
		// Earliest-created exclusion per date wins; the repository orders
		// by date then created_at, so the pick is stable
		if _, ok := exclusionByDate[date]; !ok {
			exclusionByDate[date] = ex
		}
	}

	count := config.OccurrenceCount(horizon)
	occurrences := make([]*domain.PopulatedEntry, 0, count)

	for index := 1; index <= count; index++ {
		date := config.OccurrenceDate(index)

		ex := exclusionByDate[date]
		if ex == nil {
			occurrences = append(occurrences, &domain.PopulatedEntry{
				Date:              date,
				Index:             index,
				Interval:          config.Interval,
				Config:            config,
				RecurringConfigID: &config.ID,
				Details:           s.entryDetails(anchor, groupsByID, tagsByID),
			})
			continue
		}

		if ex.Reason == domain.ExclusionReasonDeletion {
			continue
		}

		var replacement *domain.Entry
		if ex.ModifiedEntryID != nil {
			replacement = entriesByID[*ex.ModifiedEntryID]
		}
		if replacement == nil {
			log.Warn().
				Str("recurring_id", config.ID.String()).
				Str("exclusion_id", ex.ID.String()).
				Msg("Modification exclusion has no replacement entry, dropping occurrence")
			continue
		}

		replacementID := replacement.ID
		exclusionID := ex.ID
		occurrences = append(occurrences, &domain.PopulatedEntry{
			ID:                &replacementID,
			Date:              date,
			Index:             index,
			Interval:          config.Interval,
			Config:            config,
			RecurringConfigID: &config.ID,
			ExclusionID:       &exclusionID,
			Details:           s.entryDetails(replacement, groupsByID, tagsByID),
		})
	}

	return occurrences
}

// entryDetails resolves an entry's display fields. Dangling group or tag
// references resolve to nil names rather than errors.
func (s *ProjectionService) entryDetails(
	entry *domain.Entry,
	groupsByID map[uuid.UUID]*domain.Group,
	tagsByID map[uuid.UUID]*domain.Tag,
) domain.EntryDetails {
	details := domain.EntryDetails{
		EntryID:      entry.ID,
		Name:         entry.Name,
		Type:         entry.Type,
		Amount:       entry.Amount,
		CurrencyCode: entry.CurrencyCode,
		Fullfilled:   entry.Fullfilled,
		GroupID:      entry.GroupID,
		TagID:        entry.TagID,
		ReceiptKey:   entry.ReceiptKey,
		CreatedAt:    entry.CreatedAt,
	}

	if entry.GroupID != nil {
		if group, ok := groupsByID[*entry.GroupID]; ok {
			details.GroupName = &group.Name
		}
	}
	if entry.TagID != nil {
		if tag, ok := tagsByID[*entry.TagID]; ok {
			details.TagName = &tag.Name
			details.TagColor = tag.Color
		}
	}

	return details
}
