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

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest represents the create group request body
type CreateGroupRequest struct {
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Icon      *string `json:"icon,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// CreateGroup godoc
// @Summary Create a group
// @Description Create a new entry group
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "Group creation request"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	group, err := h.groupService.CreateGroup(c.Request().Context(), userID, req.Name, req.Icon)
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
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create group")
		return NewInternalError(c, "Failed to create group")
	}

	return c.JSON(http.StatusCreated, toGroupResponse(group))
}

// ListGroups godoc
// @Summary List groups
// @Description Get all entry groups of the authenticated user
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} GroupResponse
// @Failure 401 {object} ProblemDetails
// @Router /groups [get]
func (h *GroupHandler) ListGroups(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	groups, err := h.groupService.ListGroups(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list groups")
		return NewInternalError(c, "Failed to list groups")
	}

	response := make([]GroupResponse, len(groups))
	for i, group := range groups {
		response[i] = toGroupResponse(group)
	}

	return c.JSON(http.StatusOK, response)
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Soft delete a group; entries referencing it keep the dangling reference
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	if err := h.groupService.DeleteGroup(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return NewNotFoundError(c, "Group not found")
		}
		log.Error().Err(err).Str("user_id", userID).Str("group_id", id.String()).Msg("Failed to delete group")
		return NewInternalError(c, "Failed to delete group")
	}

	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert domain.Group to GroupResponse
func toGroupResponse(group *domain.Group) GroupResponse {
	return GroupResponse{
		ID:        group.ID.String(),
		Name:      group.Name,
		Icon:      group.Icon,
		CreatedAt: group.CreatedAt.Format(time.RFC3339),
	}
}
