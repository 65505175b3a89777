package testutil

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/websocket"
)

var mockBaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// MockEntryRepository is a mock implementation of domain.EntryRepository
type MockEntryRepository struct {
	Entries  map[uuid.UUID]*domain.Entry
	Deleted  map[uuid.UUID]bool
	order    []uuid.UUID
	seq      int
	CreateFn func(entry *domain.Entry) (*domain.Entry, error)
	UpdateFn func(entry *domain.Entry) (*domain.Entry, error)
}

// NewMockEntryRepository creates a new MockEntryRepository
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		Entries: make(map[uuid.UUID]*domain.Entry),
		Deleted: make(map[uuid.UUID]bool),
	}
}

// Create creates a new entry
func (m *MockEntryRepository) Create(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = mockBaseTime.Add(time.Duration(m.seq) * time.Second)
		m.seq++
	}
	m.Entries[entry.ID] = entry
	m.order = append(m.order, entry.ID)
	return entry, nil
}

// GetByID retrieves an entry by ID
func (m *MockEntryRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Entry, error) {
	entry, ok := m.Entries[id]
	if !ok || m.Deleted[id] || entry.UserID != userID {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

// ListStandalone retrieves entries without a recurring config, ordered by date
func (m *MockEntryRepository) ListStandalone(ctx context.Context, userID string) ([]*domain.Entry, error) {
	var result []*domain.Entry
	for _, id := range m.order {
		entry := m.Entries[id]
		if m.Deleted[id] || entry.UserID != userID || entry.RecurringID != nil {
			continue
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ListByRecurringIDs retrieves entries for the given recurring configs, ordered by creation time
func (m *MockEntryRepository) ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*domain.Entry, error) {
	wanted := make(map[uuid.UUID]bool, len(recurringIDs))
	for _, id := range recurringIDs {
		wanted[id] = true
	}
	var result []*domain.Entry
	for _, id := range m.order {
		entry := m.Entries[id]
		if m.Deleted[id] || entry.UserID != userID || entry.RecurringID == nil {
			continue
		}
		if wanted[*entry.RecurringID] {
			result = append(result, entry)
		}
	}
	return result, nil
}

// Update updates an existing entry
func (m *MockEntryRepository) Update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(entry)
	}
	if _, ok := m.Entries[entry.ID]; !ok || m.Deleted[entry.ID] {
		return nil, domain.ErrEntryNotFound
	}
	m.Entries[entry.ID] = entry
	return entry, nil
}

// Delete soft-deletes an entry
func (m *MockEntryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	entry, ok := m.Entries[id]
	if !ok || m.Deleted[id] || entry.UserID != userID {
		return domain.ErrEntryNotFound
	}
	m.Deleted[id] = true
	return nil
}

// SetReceiptKey sets or clears the receipt object key on an entry
func (m *MockEntryRepository) SetReceiptKey(ctx context.Context, userID string, id uuid.UUID, key *string) error {
	entry, ok := m.Entries[id]
	if !ok || m.Deleted[id] || entry.UserID != userID {
		return domain.ErrEntryNotFound
	}
	entry.ReceiptKey = key
	return nil
}

// MockGroupRepository is a mock implementation of domain.GroupRepository
type MockGroupRepository struct {
	Groups   map[uuid.UUID]*domain.Group
	Deleted  map[uuid.UUID]bool
	order    []uuid.UUID
	CreateFn func(group *domain.Group) (*domain.Group, error)
}

// NewMockGroupRepository creates a new MockGroupRepository
func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		Groups:  make(map[uuid.UUID]*domain.Group),
		Deleted: make(map[uuid.UUID]bool),
	}
}

// Create creates a new group
func (m *MockGroupRepository) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	if m.CreateFn != nil {
		return m.CreateFn(group)
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	m.Groups[group.ID] = group
	m.order = append(m.order, group.ID)
	return group, nil
}

// GetByID retrieves a group by ID
func (m *MockGroupRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Group, error) {
	group, ok := m.Groups[id]
	if !ok || m.Deleted[id] || group.UserID != userID {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

// ListByUser retrieves all groups for a user
func (m *MockGroupRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	var result []*domain.Group
	for _, id := range m.order {
		group := m.Groups[id]
		if m.Deleted[id] || group.UserID != userID {
			continue
		}
		result = append(result, group)
	}
	return result, nil
}

// Delete soft-deletes a group
func (m *MockGroupRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	group, ok := m.Groups[id]
	if !ok || m.Deleted[id] || group.UserID != userID {
		return domain.ErrGroupNotFound
	}
	m.Deleted[id] = true
	return nil
}

// MockTagRepository is a mock implementation of domain.TagRepository
type MockTagRepository struct {
	Tags    map[uuid.UUID]*domain.Tag
	Deleted map[uuid.UUID]bool
	order   []uuid.UUID
}

// NewMockTagRepository creates a new MockTagRepository
func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{
		Tags:    make(map[uuid.UUID]*domain.Tag),
		Deleted: make(map[uuid.UUID]bool),
	}
}

// Create creates a new tag
func (m *MockTagRepository) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	m.Tags[tag.ID] = tag
	m.order = append(m.order, tag.ID)
	return tag, nil
}

// GetByID retrieves a tag by ID
func (m *MockTagRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Tag, error) {
	tag, ok := m.Tags[id]
	if !ok || m.Deleted[id] || tag.UserID != userID {
		return nil, domain.ErrTagNotFound
	}
	return tag, nil
}

// ListByUser retrieves all tags for a user
func (m *MockTagRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Tag, error) {
	var result []*domain.Tag
	for _, id := range m.order {
		tag := m.Tags[id]
		if m.Deleted[id] || tag.UserID != userID {
			continue
		}
		result = append(result, tag)
	}
	return result, nil
}

// UpdateColor updates a tag's color
func (m *MockTagRepository) UpdateColor(ctx context.Context, userID string, id uuid.UUID, color *string) error {
	tag, ok := m.Tags[id]
	if !ok || m.Deleted[id] || tag.UserID != userID {
		return domain.ErrTagNotFound
	}
	tag.Color = color
	return nil
}

// Delete soft-deletes a tag
func (m *MockTagRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, ok := m.Tags[id]
	if !ok || m.Deleted[id] || tag.UserID != userID {
		return domain.ErrTagNotFound
	}
	m.Deleted[id] = true
	return nil
}

// MockRecurringConfigRepository is a mock implementation of domain.RecurringConfigRepository
type MockRecurringConfigRepository struct {
	Configs  map[uuid.UUID]*domain.RecurringConfig
	Deleted  map[uuid.UUID]bool
	order    []uuid.UUID
	UpdateFn func(config *domain.RecurringConfig) (*domain.RecurringConfig, error)
}

// NewMockRecurringConfigRepository creates a new MockRecurringConfigRepository
func NewMockRecurringConfigRepository() *MockRecurringConfigRepository {
	return &MockRecurringConfigRepository{
		Configs: make(map[uuid.UUID]*domain.RecurringConfig),
		Deleted: make(map[uuid.UUID]bool),
	}
}

// Create creates a new recurring config
func (m *MockRecurringConfigRepository) Create(ctx context.Context, config *domain.RecurringConfig) (*domain.RecurringConfig, error) {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	m.Configs[config.ID] = config
	m.order = append(m.order, config.ID)
	return config, nil
}

// GetByID retrieves a recurring config by ID
func (m *MockRecurringConfigRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.RecurringConfig, error) {
	config, ok := m.Configs[id]
	if !ok || m.Deleted[id] || config.UserID != userID {
		return nil, domain.ErrRecurringNotFound
	}
	return config, nil
}

// ListByUser retrieves all recurring configs for a user
func (m *MockRecurringConfigRepository) ListByUser(ctx context.Context, userID string) ([]*domain.RecurringConfig, error) {
	var result []*domain.RecurringConfig
	for _, id := range m.order {
		config := m.Configs[id]
		if m.Deleted[id] || config.UserID != userID {
			continue
		}
		result = append(result, config)
	}
	return result, nil
}

// Update updates an existing recurring config
func (m *MockRecurringConfigRepository) Update(ctx context.Context, config *domain.RecurringConfig) (*domain.RecurringConfig, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(config)
	}
	if _, ok := m.Configs[config.ID]; !ok || m.Deleted[config.ID] {
		return nil, domain.ErrRecurringNotFound
	}
	m.Configs[config.ID] = config
	return config, nil
}

// Delete soft-deletes a recurring config
func (m *MockRecurringConfigRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	config, ok := m.Configs[id]
	if !ok || m.Deleted[id] || config.UserID != userID {
		return domain.ErrRecurringNotFound
	}
	m.Deleted[id] = true
	return nil
}

// MockExclusionRepository is a mock implementation of domain.ExclusionRepository
type MockExclusionRepository struct {
	Exclusions map[uuid.UUID]*domain.Exclusion
	Deleted    map[uuid.UUID]bool
	order      []uuid.UUID
	CreateFn   func(exclusion *domain.Exclusion) (*domain.Exclusion, error)
}

// NewMockExclusionRepository creates a new MockExclusionRepository
func NewMockExclusionRepository() *MockExclusionRepository {
	return &MockExclusionRepository{
		Exclusions: make(map[uuid.UUID]*domain.Exclusion),
		Deleted:    make(map[uuid.UUID]bool),
	}
}

// Create creates a new exclusion
func (m *MockExclusionRepository) Create(ctx context.Context, exclusion *domain.Exclusion) (*domain.Exclusion, error) {
	if m.CreateFn != nil {
		return m.CreateFn(exclusion)
	}
	if exclusion.ID == uuid.Nil {
		exclusion.ID = uuid.New()
	}
	m.Exclusions[exclusion.ID] = exclusion
	m.order = append(m.order, exclusion.ID)
	return exclusion, nil
}

// ListByRecurringIDs retrieves exclusions for the given recurring configs,
// ordered by date then creation order
func (m *MockExclusionRepository) ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*domain.Exclusion, error) {
	wanted := make(map[uuid.UUID]bool, len(recurringIDs))
	for _, id := range recurringIDs {
		wanted[id] = true
	}
	var result []*domain.Exclusion
	for _, id := range m.order {
		exclusion := m.Exclusions[id]
		if m.Deleted[id] || exclusion.UserID != userID {
			continue
		}
		if wanted[exclusion.RecurringID] {
			result = append(result, exclusion)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// UpdateReason updates an exclusion's reason
func (m *MockExclusionRepository) UpdateReason(ctx context.Context, userID string, id uuid.UUID, reason domain.ExclusionReason) error {
	exclusion, ok := m.Exclusions[id]
	if !ok || m.Deleted[id] || exclusion.UserID != userID {
		return domain.ErrExclusionNotFound
	}
	exclusion.Reason = reason
	return nil
}

// Delete soft-deletes an exclusion
func (m *MockExclusionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	exclusion, ok := m.Exclusions[id]
	if !ok || m.Deleted[id] || exclusion.UserID != userID {
		return domain.ErrExclusionNotFound
	}
	m.Deleted[id] = true
	return nil
}

// MockMaintenanceRepository is a mock implementation of domain.MaintenanceRepository.
// It hard-deletes the user's rows from the other mocks it references.
type MockMaintenanceRepository struct {
	Entries    *MockEntryRepository
	Groups     *MockGroupRepository
	Tags       *MockTagRepository
	Configs    *MockRecurringConfigRepository
	Exclusions *MockExclusionRepository
	EraseCalls int
}

// EraseAll removes every row belonging to the user across all mocks
func (m *MockMaintenanceRepository) EraseAll(ctx context.Context, userID string) error {
	m.EraseCalls++
	if m.Exclusions != nil {
		for id, e := range m.Exclusions.Exclusions {
			if e.UserID == userID {
				delete(m.Exclusions.Exclusions, id)
				delete(m.Exclusions.Deleted, id)
			}
		}
	}
	if m.Entries != nil {
		for id, e := range m.Entries.Entries {
			if e.UserID == userID {
				delete(m.Entries.Entries, id)
				delete(m.Entries.Deleted, id)
			}
		}
	}
	if m.Configs != nil {
		for id, c := range m.Configs.Configs {
			if c.UserID == userID {
				delete(m.Configs.Configs, id)
				delete(m.Configs.Deleted, id)
			}
		}
	}
	if m.Groups != nil {
		for id, g := range m.Groups.Groups {
			if g.UserID == userID {
				delete(m.Groups.Groups, id)
				delete(m.Groups.Deleted, id)
			}
		}
	}
	if m.Tags != nil {
		for id, t := range m.Tags.Tags {
			if t.UserID == userID {
				delete(m.Tags.Tags, id)
				delete(m.Tags.Deleted, id)
			}
		}
	}
	return nil
}

// MockEventPublisher captures published events for assertions
type MockEventPublisher struct {
	Events []PublishedEvent
}

// PublishedEvent records a single Publish call
type PublishedEvent struct {
	UserID string
	Event  websocket.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(userID string, event websocket.Event) {
	m.Events = append(m.Events, PublishedEvent{UserID: userID, Event: event})
}

// EventTypes returns the types of all published events in order
func (m *MockEventPublisher) EventTypes() []string {
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}

// MockReceiptRepository is an in-memory mock of storage.ReceiptRepository
type MockReceiptRepository struct {
	Objects map[string][]byte
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{Objects: make(map[string][]byte)}
}

// Upload stores the object in memory
func (m *MockReceiptRepository) Upload(ctx context.Context, objectKey string, data io.Reader, contentType string, size int64) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.Objects[objectKey] = buf
	return nil
}

// Delete removes the object
func (m *MockReceiptRepository) Delete(ctx context.Context, objectKey string) error {
	delete(m.Objects, objectKey)
	return nil
}

// PresignURL returns a fake URL for the object
func (m *MockReceiptRepository) PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return "https://receipts.test/" + objectKey, nil
}
