package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag_ValidInput(t *testing.T) {
	tagRepo := testutil.NewMockTagRepository()
	publisher := &testutil.MockEventPublisher{}
	service := NewTagService(tagRepo)
	service.SetEventPublisher(publisher)

	color := "#22aa66"
	suggestID := "groceries"
	tag, err := service.CreateTag(context.Background(), testUser, "Groceries", &color, &suggestID)

	require.NoError(t, err)
	assert.Equal(t, "Groceries", tag.Name)
	require.NotNil(t, tag.Color)
	assert.Equal(t, color, *tag.Color)
	require.NotNil(t, tag.SuggestID)
	assert.Equal(t, suggestID, *tag.SuggestID)
	assert.Contains(t, publisher.EventTypes(), "tag.created")
}

func TestCreateTag_EmptyName(t *testing.T) {
	service := NewTagService(testutil.NewMockTagRepository())

	_, err := service.CreateTag(context.Background(), testUser, "", nil, nil)

	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

func TestUpdateTagColor(t *testing.T) {
	tagRepo := testutil.NewMockTagRepository()
	publisher := &testutil.MockEventPublisher{}
	service := NewTagService(tagRepo)
	service.SetEventPublisher(publisher)
	ctx := context.Background()

	tag, err := service.CreateTag(ctx, testUser, "Groceries", nil, nil)
	require.NoError(t, err)

	color := "#ff0000"
	updated, err := service.UpdateTagColor(ctx, testUser, tag.ID, &color)

	require.NoError(t, err)
	require.NotNil(t, updated.Color)
	assert.Equal(t, color, *updated.Color)
	assert.Contains(t, publisher.EventTypes(), "tag.updated")

	// Clearing the color again
	updated, err = service.UpdateTagColor(ctx, testUser, tag.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Color)
}

func TestUpdateTagColor_NotFound(t *testing.T) {
	service := NewTagService(testutil.NewMockTagRepository())

	_, err := service.UpdateTagColor(context.Background(), testUser, uuid.New(), nil)

	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestDeleteTag(t *testing.T) {
	tagRepo := testutil.NewMockTagRepository()
	service := NewTagService(tagRepo)
	ctx := context.Background()

	tag, err := service.CreateTag(ctx, testUser, "Groceries", nil, nil)
	require.NoError(t, err)

	require.NoError(t, service.DeleteTag(ctx, testUser, tag.ID))

	tags, err := service.ListTags(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
