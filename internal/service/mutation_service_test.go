package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutationFixture struct {
	entries     *testutil.MockEntryRepository
	groups      *testutil.MockGroupRepository
	tags        *testutil.MockTagRepository
	configs     *testutil.MockRecurringConfigRepository
	exclusions  *testutil.MockExclusionRepository
	maintenance *testutil.MockMaintenanceRepository
	publisher   *testutil.MockEventPublisher
	mutations   *MutationService
	projection  *ProjectionService
}

func newMutationFixture() *mutationFixture {
	f := &mutationFixture{
		entries:    testutil.NewMockEntryRepository(),
		groups:     testutil.NewMockGroupRepository(),
		tags:       testutil.NewMockTagRepository(),
		configs:    testutil.NewMockRecurringConfigRepository(),
		exclusions: testutil.NewMockExclusionRepository(),
		publisher:  &testutil.MockEventPublisher{},
	}
	f.maintenance = &testutil.MockMaintenanceRepository{
		Entries:    f.entries,
		Groups:     f.groups,
		Tags:       f.tags,
		Configs:    f.configs,
		Exclusions: f.exclusions,
	}
	f.mutations = NewMutationService(f.entries, f.configs, f.exclusions, f.maintenance)
	f.mutations.SetEventPublisher(f.publisher)
	f.projection = NewProjectionService(f.entries, f.groups, f.tags, f.configs, f.exclusions)
	return f
}

func (f *mutationFixture) seedMonthlyRent(t *testing.T) *domain.RecurringConfig {
	t.Helper()
	ctx := context.Background()

	config, err := f.configs.Create(ctx, &domain.RecurringConfig{
		UserID:    testUser,
		Frequency: domain.FrequencyMonth,
		Interval:  12,
		Every:     1,
		StartDate: date(2024, time.January, 1),
	})
	require.NoError(t, err)

	_, err = f.entries.Create(ctx, &domain.Entry{
		UserID:       testUser,
		Name:         "Rent",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "EUR",
		Date:         date(2024, time.January, 1),
		RecurringID:  &config.ID,
	})
	require.NoError(t, err)

	return config
}

func (f *mutationFixture) seedStandalone(t *testing.T) *domain.Entry {
	t.Helper()

	entry, err := f.entries.Create(context.Background(), &domain.Entry{
		UserID:       testUser,
		Name:         "Groceries",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(80),
		CurrencyCode: "EUR",
		Date:         date(2024, time.March, 10),
	})
	require.NoError(t, err)
	return entry
}

func (f *mutationFixture) feed(t *testing.T) []*domain.PopulatedEntry {
	t.Helper()
	feed, err := f.projection.BuildFeed(context.Background(), testUser, date(2026, time.January, 1))
	require.NoError(t, err)
	return feed
}

func (f *mutationFixture) seriesExclusions(t *testing.T, configID uuid.UUID) []*domain.Exclusion {
	t.Helper()
	exclusions, err := f.exclusions.ListByRecurringIDs(context.Background(), testUser, []uuid.UUID{configID})
	require.NoError(t, err)
	return exclusions
}

// refFor builds a mutation reference the way the HTTP layer does: from the
// fields of a projected occurrence
func refFor(p *domain.PopulatedEntry) OccurrenceRef {
	return OccurrenceRef{
		EntryID:           p.ID,
		RecurringConfigID: p.RecurringConfigID,
		ExclusionID:       p.ExclusionID,
		Date:              p.Date,
		Index:             p.Index,
	}
}

func TestToggleFulfilled_Standalone(t *testing.T) {
	f := newMutationFixture()
	entry := f.seedStandalone(t)
	ctx := context.Background()

	feed := f.feed(t)
	require.Len(t, feed, 1)

	err := f.mutations.ToggleFulfilled(ctx, testUser, refFor(feed[0]), MutationOptions{})
	require.NoError(t, err)

	feed = f.feed(t)
	assert.True(t, feed[0].Details.Fullfilled)
	assert.Equal(t, entry.ID, *feed[0].ID)
	assert.Contains(t, f.publisher.EventTypes(), "feed.refreshed")

	// Toggling again flips back
	err = f.mutations.ToggleFulfilled(ctx, testUser, refFor(feed[0]), MutationOptions{})
	require.NoError(t, err)
	assert.False(t, f.feed(t)[0].Details.Fullfilled)
}

func TestToggleFulfilled_MaterializesSeriesOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	feed := f.feed(t)
	require.Len(t, feed, 12)
	target := feed[4] // 2024-05-01, index 5
	require.Nil(t, target.ID)

	err := f.mutations.ToggleFulfilled(ctx, testUser, refFor(target), MutationOptions{})
	require.NoError(t, err)

	// Exactly one modification exclusion, dated at the toggled occurrence
	exclusions := f.seriesExclusions(t, config.ID)
	require.Len(t, exclusions, 1)
	assert.Equal(t, domain.ExclusionReasonModification, exclusions[0].Reason)
	assert.Equal(t, date(2024, time.May, 1), exclusions[0].Date)
	require.NotNil(t, exclusions[0].ModifiedEntryID)

	feed = f.feed(t)
	require.Len(t, feed, 12)
	toggled := feed[4]
	assert.True(t, toggled.Details.Fullfilled)
	require.NotNil(t, toggled.ID, "toggled occurrence is backed by a replacement row")
	require.NotNil(t, toggled.ExclusionID)
	assert.Equal(t, 5, toggled.Index)

	// The rest of the series is untouched
	for i, p := range feed {
		if i == 4 {
			continue
		}
		assert.False(t, p.Details.Fullfilled)
		assert.Nil(t, p.ID)
	}
}

func TestToggleFulfilled_MaterializedOccurrenceUpdatesInPlace(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[4]
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(target), MutationOptions{}))

	// Second toggle goes through the replacement row, no new exclusion
	materialized := f.feed(t)[4]
	require.NotNil(t, materialized.ID)
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(materialized), MutationOptions{}))

	assert.Len(t, f.seriesExclusions(t, config.ID), 1)
	assert.False(t, f.feed(t)[4].Details.Fullfilled)
}

func TestToggleFulfilled_SkipRefresh(t *testing.T) {
	f := newMutationFixture()
	f.seedStandalone(t)
	ctx := context.Background()

	feed := f.feed(t)
	err := f.mutations.ToggleFulfilled(ctx, testUser, refFor(feed[0]), MutationOptions{SkipRefresh: true})
	require.NoError(t, err)

	assert.NotContains(t, f.publisher.EventTypes(), "feed.refreshed")
}

func TestToggleFulfilled_MissingRef(t *testing.T) {
	f := newMutationFixture()

	err := f.mutations.ToggleFulfilled(context.Background(), testUser, OccurrenceRef{}, MutationOptions{})

	assert.ErrorIs(t, err, domain.ErrMissingOccurrence)
}

func TestEditOccurrence_Standalone(t *testing.T) {
	f := newMutationFixture()
	f.seedStandalone(t)
	ctx := context.Background()

	feed := f.feed(t)
	err := f.mutations.EditOccurrence(ctx, testUser, refFor(feed[0]), EditOccurrenceInput{
		Name:   "Weekly shop",
		Amount: decimal.NewFromInt(95),
	}, MutationOptions{})
	require.NoError(t, err)

	feed = f.feed(t)
	assert.Equal(t, "Weekly shop", feed[0].Details.Name)
	assert.True(t, feed[0].Details.Amount.Equal(decimal.NewFromInt(95)))
}

func TestEditOccurrence_Validation(t *testing.T) {
	f := newMutationFixture()
	f.seedStandalone(t)
	feed := f.feed(t)
	ctx := context.Background()

	err := f.mutations.EditOccurrence(ctx, testUser, refFor(feed[0]), EditOccurrenceInput{
		Name:   "   ",
		Amount: decimal.NewFromInt(95),
	}, MutationOptions{})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	err = f.mutations.EditOccurrence(ctx, testUser, refFor(feed[0]), EditOccurrenceInput{
		Name:   "Shop",
		Amount: decimal.NewFromInt(-5),
	}, MutationOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestEditOccurrence_MaterializesSeriesOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[2] // 2024-03-01, index 3
	err := f.mutations.EditOccurrence(ctx, testUser, refFor(target), EditOccurrenceInput{
		Name:   "Rent (partial month)",
		Amount: decimal.NewFromInt(900),
	}, MutationOptions{})
	require.NoError(t, err)

	exclusions := f.seriesExclusions(t, config.ID)
	require.Len(t, exclusions, 1)
	assert.Equal(t, domain.ExclusionReasonModification, exclusions[0].Reason)

	feed := f.feed(t)
	require.Len(t, feed, 12)
	edited := feed[2]
	assert.Equal(t, "Rent (partial month)", edited.Details.Name)
	assert.True(t, edited.Details.Amount.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, "Rent", feed[1].Details.Name)
	assert.Equal(t, "Rent", feed[3].Details.Name)
}

func TestEditOccurrence_ApplyToSubsequents_SplitsSeries(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[4] // 2024-05-01, index 5
	err := f.mutations.EditOccurrence(ctx, testUser, refFor(target), EditOccurrenceInput{
		Name:               "Rent",
		Amount:             decimal.NewFromInt(1600),
		ApplyToSubsequents: true,
	}, MutationOptions{})
	require.NoError(t, err)

	// Old config truncated to the four occurrences before the split
	oldConfig, err := f.configs.GetByID(ctx, testUser, config.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), oldConfig.Interval)
	require.NotNil(t, oldConfig.EndDate)
	assert.Equal(t, date(2024, time.May, 1), *oldConfig.EndDate)

	// A new config starts at the split date and covers the rest
	allConfigs, err := f.configs.ListByUser(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, allConfigs, 2)
	newConfig := allConfigs[1]
	assert.Equal(t, date(2024, time.May, 1), newConfig.StartDate)
	assert.Equal(t, int32(8), newConfig.Interval)
	assert.Equal(t, domain.FrequencyMonth, newConfig.Frequency)
	assert.Equal(t, int32(1), newConfig.Every)

	// Feed is still 12 continuous monthly occurrences with the amount
	// changing at the split
	feed := f.feed(t)
	require.Len(t, feed, 12)
	for i, p := range feed {
		assert.Equal(t, date(2024, time.Month(i+1), 1), p.Date)
		if p.Date.Before(date(2024, time.May, 1)) {
			assert.True(t, p.Details.Amount.Equal(decimal.NewFromInt(1500)), "occurrence %d keeps the old amount", i+1)
			assert.Equal(t, config.ID, *p.RecurringConfigID)
		} else {
			assert.True(t, p.Details.Amount.Equal(decimal.NewFromInt(1600)), "occurrence %d gets the new amount", i+1)
			assert.Equal(t, newConfig.ID, *p.RecurringConfigID)
		}
	}

	// The split occurrence itself is materialized and stays editable
	split := feed[4]
	require.NotNil(t, split.ID)
	require.NotNil(t, split.ExclusionID)
	assert.Equal(t, 1, split.Index, "split occurrence restarts at index 1 of the new series")
	assert.Equal(t, int32(8), split.Interval)
}

func TestEditOccurrence_ApplyToSubsequents_FromFirstOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[0] // index 1
	err := f.mutations.EditOccurrence(ctx, testUser, refFor(target), EditOccurrenceInput{
		Name:               "Rent",
		Amount:             decimal.NewFromInt(1600),
		ApplyToSubsequents: true,
	}, MutationOptions{})
	require.NoError(t, err)

	// The old config is retired, not truncated to zero occurrences
	_, err = f.configs.GetByID(ctx, testUser, config.ID)
	assert.ErrorIs(t, err, domain.ErrRecurringNotFound)

	feed := f.feed(t)
	require.Len(t, feed, 12)
	for _, p := range feed {
		assert.True(t, p.Details.Amount.Equal(decimal.NewFromInt(1600)))
	}
}

func TestEditOccurrence_ApplyToSubsequents_DropsTailOverrides(t *testing.T) {
	f := newMutationFixture()
	f.seedMonthlyRent(t)
	ctx := context.Background()

	// Materialize an occurrence after the future split point
	later := f.feed(t)[7] // 2024-08-01
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(later), MutationOptions{}))

	target := f.feed(t)[4] // 2024-05-01
	err := f.mutations.EditOccurrence(ctx, testUser, refFor(target), EditOccurrenceInput{
		Name:               "Rent",
		Amount:             decimal.NewFromInt(1600),
		ApplyToSubsequents: true,
	}, MutationOptions{})
	require.NoError(t, err)

	// The August override belonged to the replaced tail and is gone
	feed := f.feed(t)
	require.Len(t, feed, 12)
	assert.False(t, feed[7].Details.Fullfilled)
	assert.True(t, feed[7].Details.Amount.Equal(decimal.NewFromInt(1600)))
}

func TestEditOccurrence_ApplyToSubsequents_KeepsFulfilledState(t *testing.T) {
	f := newMutationFixture()
	f.seedMonthlyRent(t)
	ctx := context.Background()

	// Materialize occurrence 5 as fulfilled before splitting at it
	target := f.feed(t)[4] // 2024-05-01
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(target), MutationOptions{}))

	target = f.feed(t)[4]
	require.NotNil(t, target.ID)
	require.True(t, target.Details.Fullfilled)

	err := f.mutations.EditOccurrence(ctx, testUser, refFor(target), EditOccurrenceInput{
		Name:               "Rent adjusted",
		Amount:             decimal.NewFromInt(1600),
		ApplyToSubsequents: true,
	}, MutationOptions{})
	require.NoError(t, err)

	// The new series' anchor is seeded from the materialized occurrence,
	// not the old template
	feed := f.feed(t)
	require.Len(t, feed, 12)
	split := feed[4]
	assert.True(t, split.Details.Fullfilled, "split keeps the occurrence's fulfilled state")
	assert.Equal(t, "Rent adjusted", split.Details.Name)
	assert.True(t, split.Details.Amount.Equal(decimal.NewFromInt(1600)))
}

func TestEditOccurrence_ApplyToSubsequents_FindsReplacementByExclusion(t *testing.T) {
	f := newMutationFixture()
	f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[4]
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(target), MutationOptions{}))

	// A ref without the backing entry id still resolves the materialized
	// state through the modification exclusion at the split date
	ref := refFor(f.feed(t)[4])
	ref.EntryID = nil
	ref.ExclusionID = nil

	err := f.mutations.EditOccurrence(ctx, testUser, ref, EditOccurrenceInput{
		Name:               "Rent",
		Amount:             decimal.NewFromInt(1600),
		ApplyToSubsequents: true,
	}, MutationOptions{})
	require.NoError(t, err)

	assert.True(t, f.feed(t)[4].Details.Fullfilled)
}

func TestDeleteOccurrence_Standalone(t *testing.T) {
	f := newMutationFixture()
	f.seedStandalone(t)
	ctx := context.Background()

	feed := f.feed(t)
	err := f.mutations.DeleteOccurrence(ctx, testUser, refFor(feed[0]), false, MutationOptions{})
	require.NoError(t, err)

	assert.Empty(t, f.feed(t))
}

func TestDeleteOccurrence_SingleSeriesOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[4] // 2024-05-01
	err := f.mutations.DeleteOccurrence(ctx, testUser, refFor(target), false, MutationOptions{})
	require.NoError(t, err)

	exclusions := f.seriesExclusions(t, config.ID)
	require.Len(t, exclusions, 1)
	assert.Equal(t, domain.ExclusionReasonDeletion, exclusions[0].Reason)

	feed := f.feed(t)
	require.Len(t, feed, 11)
	for _, p := range feed {
		assert.NotEqual(t, date(2024, time.May, 1), p.Date)
	}
}

func TestDeleteOccurrence_MaterializedOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[4]
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(target), MutationOptions{}))

	materialized := f.feed(t)[4]
	require.NotNil(t, materialized.ExclusionID)

	err := f.mutations.DeleteOccurrence(ctx, testUser, refFor(materialized), false, MutationOptions{})
	require.NoError(t, err)

	// The modification exclusion flips to a deletion instead of piling up
	exclusions := f.seriesExclusions(t, config.ID)
	require.Len(t, exclusions, 1)
	assert.Equal(t, domain.ExclusionReasonDeletion, exclusions[0].Reason)
	assert.Len(t, f.feed(t), 11)
}

func TestDeleteOccurrence_WithSubsequents(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	// An override after the cut should not linger
	later := f.feed(t)[7] // 2024-08-01
	require.NoError(t, f.mutations.ToggleFulfilled(ctx, testUser, refFor(later), MutationOptions{}))

	target := f.feed(t)[4] // 2024-05-01, index 5
	err := f.mutations.DeleteOccurrence(ctx, testUser, refFor(target), true, MutationOptions{})
	require.NoError(t, err)

	truncated, err := f.configs.GetByID(ctx, testUser, config.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), truncated.Interval)
	require.NotNil(t, truncated.EndDate)
	assert.Equal(t, date(2024, time.May, 1), *truncated.EndDate)

	feed := f.feed(t)
	require.Len(t, feed, 4)
	assert.Equal(t, date(2024, time.April, 1), feed[3].Date)
}

func TestDeleteOccurrence_WithSubsequents_FromFirstOccurrence(t *testing.T) {
	f := newMutationFixture()
	config := f.seedMonthlyRent(t)
	ctx := context.Background()

	target := f.feed(t)[0]
	err := f.mutations.DeleteOccurrence(ctx, testUser, refFor(target), true, MutationOptions{})
	require.NoError(t, err)

	_, err = f.configs.GetByID(ctx, testUser, config.ID)
	assert.ErrorIs(t, err, domain.ErrRecurringNotFound)
	assert.Empty(t, f.feed(t))
}

func TestEraseAll(t *testing.T) {
	f := newMutationFixture()
	f.seedMonthlyRent(t)
	f.seedStandalone(t)
	ctx := context.Background()

	require.NotEmpty(t, f.feed(t))

	err := f.mutations.EraseAll(ctx, testUser)
	require.NoError(t, err)

	assert.Empty(t, f.feed(t))
	assert.Contains(t, f.publisher.EventTypes(), "account.erased")
	assert.Contains(t, f.publisher.EventTypes(), "feed.refreshed")

	// Erasing an already-empty account succeeds
	require.NoError(t, f.mutations.EraseAll(ctx, testUser))
	assert.Equal(t, 2, f.maintenance.EraseCalls)
}

func TestMutations_EmptyUserID(t *testing.T) {
	f := newMutationFixture()
	ctx := context.Background()

	id := uuid.New()
	ref := OccurrenceRef{EntryID: &id}

	assert.ErrorIs(t, f.mutations.ToggleFulfilled(ctx, "", ref, MutationOptions{}), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.mutations.EditOccurrence(ctx, "", ref, EditOccurrenceInput{Name: "x", Amount: decimal.NewFromInt(1)}, MutationOptions{}), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.mutations.DeleteOccurrence(ctx, "", ref, false, MutationOptions{}), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.mutations.EraseAll(ctx, ""), domain.ErrUnauthorized)
}

func TestMutations_OtherUsersDataInvisible(t *testing.T) {
	f := newMutationFixture()
	entry := f.seedStandalone(t)
	ctx := context.Background()

	ref := OccurrenceRef{EntryID: &entry.ID}
	err := f.mutations.ToggleFulfilled(ctx, "auth0|mallory", ref, MutationOptions{})

	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}
