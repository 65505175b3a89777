package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TagHandler handles tag-related HTTP requests
type TagHandler struct {
	tagService *service.TagService
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// CreateTagRequest represents the create tag request body
type CreateTagRequest struct {
	Name      string  `json:"name"`
	Color     *string `json:"color,omitempty"`
	SuggestID *string `json:"suggestId,omitempty"`
}

// UpdateTagColorRequest represents the update tag color request body
type UpdateTagColorRequest struct {
	Color *string `json:"color"`
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color,omitempty"`
	SuggestID *string `json:"suggestId,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// CreateTag godoc
// @Summary Create a tag
// @Description Create a new entry tag
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTagRequest true "Tag creation request"
// @Success 201 {object} TagResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /tags [post]
func (h *TagHandler) CreateTag(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	tag, err := h.tagService.CreateTag(c.Request().Context(), userID, req.Name, req.Color, req.SuggestID)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create tag")
		return NewInternalError(c, "Failed to create tag")
	}

	return c.JSON(http.StatusCreated, toTagResponse(tag))
}

// ListTags godoc
// @Summary List tags
// @Description Get all tags of the authenticated user
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TagResponse
// @Failure 401 {object} ProblemDetails
// @Router /tags [get]
func (h *TagHandler) ListTags(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	tags, err := h.tagService.ListTags(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list tags")
		return NewInternalError(c, "Failed to list tags")
	}

	response := make([]TagResponse, len(tags))
	for i, tag := range tags {
		response[i] = toTagResponse(tag)
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateTagColor godoc
// @Summary Update a tag's color
// @Description Set or clear the color of a tag
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag ID"
// @Param request body UpdateTagColorRequest true "Tag color update request"
// @Success 200 {object} TagResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /tags/{id}/color [patch]
func (h *TagHandler) UpdateTagColor(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid tag ID", nil)
	}

	var req UpdateTagColorRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	tag, err := h.tagService.UpdateTagColor(c.Request().Context(), userID, id, req.Color)
	if err != nil {
		if errors.Is(err, domain.ErrTagNotFound) {
			return NewNotFoundError(c, "Tag not found")
		}
		log.Error().Err(err).Str("user_id", userID).Str("tag_id", id.String()).Msg("Failed to update tag color")
		return NewInternalError(c, "Failed to update tag color")
	}

	return c.JSON(http.StatusOK, toTagResponse(tag))
}

// DeleteTag godoc
// @Summary Delete a tag
// @Description Soft delete a tag; entries referencing it keep the dangling reference
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag ID"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid tag ID", nil)
	}

	if err := h.tagService.DeleteTag(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrTagNotFound) {
			return NewNotFoundError(c, "Tag not found")
		}
		log.Error().Err(err).Str("user_id", userID).Str("tag_id", id.String()).Msg("Failed to delete tag")
		return NewInternalError(c, "Failed to delete tag")
	}

	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert domain.Tag to TagResponse
func toTagResponse(tag *domain.Tag) TagResponse {
	return TagResponse{
		ID:        tag.ID.String(),
		Name:      tag.Name,
		Color:     tag.Color,
		SuggestID: tag.SuggestID,
		CreatedAt: tag.CreatedAt.Format(time.RFC3339),
	}
}
