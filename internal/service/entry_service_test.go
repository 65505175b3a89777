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

func newEntryService() (*EntryService, *testutil.MockEntryRepository, *testutil.MockRecurringConfigRepository, *testutil.MockEventPublisher) {
	entryRepo := testutil.NewMockEntryRepository()
	configRepo := testutil.NewMockRecurringConfigRepository()
	groupRepo := testutil.NewMockGroupRepository()
	tagRepo := testutil.NewMockTagRepository()
	publisher := &testutil.MockEventPublisher{}
	service := NewEntryService(entryRepo, configRepo, groupRepo, tagRepo)
	service.SetEventPublisher(publisher)
	return service, entryRepo, configRepo, publisher
}

func TestCreateEntry_ValidInput(t *testing.T) {
	service, _, _, publisher := newEntryService()

	entry, err := service.CreateEntry(context.Background(), testUser, CreateEntryInput{
		Name:         "Groceries",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(80),
		CurrencyCode: "eur",
		Date:         time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, "Groceries", entry.Name)
	assert.Equal(t, "EUR", entry.CurrencyCode)
	assert.Equal(t, date(2024, time.March, 10), entry.Date, "date is normalized to UTC midnight")
	assert.Nil(t, entry.RecurringID)
	assert.Contains(t, publisher.EventTypes(), "entry.created")
	assert.Contains(t, publisher.EventTypes(), "feed.refreshed")
}

func TestCreateEntry_Validation(t *testing.T) {
	service, _, _, _ := newEntryService()
	ctx := context.Background()

	base := CreateEntryInput{
		Name:         "Groceries",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(80),
		CurrencyCode: "EUR",
		Date:         date(2024, time.March, 10),
	}

	tests := []struct {
		name    string
		mutate  func(*CreateEntryInput)
		wantErr error
	}{
		{"empty name", func(i *CreateEntryInput) { i.Name = " " }, domain.ErrNameRequired},
		{"bad type", func(i *CreateEntryInput) { i.Type = "transfer" }, domain.ErrInvalidEntryType},
		{"zero amount", func(i *CreateEntryInput) { i.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(i *CreateEntryInput) { i.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"bad currency", func(i *CreateEntryInput) { i.CurrencyCode = "EURO" }, domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)
			_, err := service.CreateEntry(ctx, testUser, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateEntry_UnknownGroup(t *testing.T) {
	service, _, _, _ := newEntryService()

	ghost := uuid.New()
	_, err := service.CreateEntry(context.Background(), testUser, CreateEntryInput{
		Name:         "Groceries",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(80),
		CurrencyCode: "EUR",
		Date:         date(2024, time.March, 10),
		GroupID:      &ghost,
	})

	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestCreateRecurringEntry_ValidInput(t *testing.T) {
	service, entryRepo, configRepo, publisher := newEntryService()
	ctx := context.Background()

	series, err := service.CreateRecurringEntry(ctx, testUser, CreateRecurringEntryInput{
		Name:         "Rent",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "EUR",
		StartDate:    date(2024, time.January, 1),
		Frequency:    domain.FrequencyMonth,
		Interval:     12,
		Every:        1,
	})

	require.NoError(t, err)
	require.NotNil(t, series.Config)
	require.NotNil(t, series.Anchor)
	assert.Equal(t, domain.FrequencyMonth, series.Config.Frequency)
	assert.Equal(t, int32(12), series.Config.Interval)
	require.NotNil(t, series.Anchor.RecurringID)
	assert.Equal(t, series.Config.ID, *series.Anchor.RecurringID)
	assert.Equal(t, series.Config.StartDate, series.Anchor.Date)

	configs, err := configRepo.ListByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, configs, 1)
	anchors, err := entryRepo.ListByRecurringIDs(ctx, testUser, []uuid.UUID{series.Config.ID})
	require.NoError(t, err)
	assert.Len(t, anchors, 1)
	assert.Contains(t, publisher.EventTypes(), "recurring.created")
}

func TestCreateRecurringEntry_Validation(t *testing.T) {
	service, _, _, _ := newEntryService()
	ctx := context.Background()

	base := CreateRecurringEntryInput{
		Name:         "Rent",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "EUR",
		StartDate:    date(2024, time.January, 1),
		Frequency:    domain.FrequencyMonth,
		Interval:     12,
		Every:        1,
	}

	tests := []struct {
		name    string
		mutate  func(*CreateRecurringEntryInput)
		wantErr error
	}{
		{"bad frequency", func(i *CreateRecurringEntryInput) { i.Frequency = "daily" }, domain.ErrInvalidFrequency},
		{"zero every", func(i *CreateRecurringEntryInput) { i.Every = 0 }, domain.ErrInvalidEvery},
		{"negative interval", func(i *CreateRecurringEntryInput) { i.Interval = -1 }, domain.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)
			_, err := service.CreateRecurringEntry(ctx, testUser, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateRecurringEntry_RollsBackConfigOnAnchorFailure(t *testing.T) {
	service, entryRepo, configRepo, _ := newEntryService()
	ctx := context.Background()

	entryRepo.CreateFn = func(entry *domain.Entry) (*domain.Entry, error) {
		return nil, domain.ErrInternalError
	}

	_, err := service.CreateRecurringEntry(ctx, testUser, CreateRecurringEntryInput{
		Name:         "Rent",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "EUR",
		StartDate:    date(2024, time.January, 1),
		Frequency:    domain.FrequencyMonth,
		Interval:     12,
		Every:        1,
	})

	assert.ErrorIs(t, err, domain.ErrInternalError)
	configs, listErr := configRepo.ListByUser(ctx, testUser)
	require.NoError(t, listErr)
	assert.Empty(t, configs, "config must not survive without its anchor")
}

func TestListRecurring(t *testing.T) {
	service, _, _, _ := newEntryService()
	ctx := context.Background()

	_, err := service.CreateRecurringEntry(ctx, testUser, CreateRecurringEntryInput{
		Name:         "Rent",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "EUR",
		StartDate:    date(2024, time.January, 1),
		Frequency:    domain.FrequencyMonth,
		Interval:     0,
		Every:        1,
	})
	require.NoError(t, err)

	configs, err := service.ListRecurring(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, configs, 1)

	configs, err = service.ListRecurring(ctx, "auth0|bob")
	require.NoError(t, err)
	assert.Empty(t, configs)
}
