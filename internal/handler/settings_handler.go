package handler

import (
	"net/http"

	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SettingsHandler handles account maintenance HTTP requests
type SettingsHandler struct {
	mutationService *service.MutationService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(mutationService *service.MutationService) *SettingsHandler {
	return &SettingsHandler{mutationService: mutationService}
}

// EraseAll godoc
// @Summary Erase all account data
// @Description Permanently delete every entry, group, tag, recurring config and exclusion of the user. Idempotent.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} ProblemDetails
// @Router /settings/erase [post]
func (h *SettingsHandler) EraseAll(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.mutationService.EraseAll(c.Request().Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to erase account data")
		return NewInternalError(c, "Failed to erase account data")
	}

	return c.NoContent(http.StatusNoContent)
}
