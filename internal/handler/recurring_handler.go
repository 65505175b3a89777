package handler

import (
	"net/http"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RecurringHandler handles recurring config HTTP requests
type RecurringHandler struct {
	entryService *service.EntryService
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(entryService *service.EntryService) *RecurringHandler {
	return &RecurringHandler{entryService: entryService}
}

// RecurringConfigResponse represents a recurrence rule in API responses
type RecurringConfigResponse struct {
	ID        string  `json:"id"`
	Frequency string  `json:"frequency"`
	Interval  int32   `json:"interval"`
	Every     int32   `json:"every"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// ListRecurring godoc
// @Summary List recurring configs
// @Description Get all recurrence rules of the authenticated user
// @Tags recurring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RecurringConfigResponse
// @Failure 401 {object} ProblemDetails
// @Router /recurring [get]
func (h *RecurringHandler) ListRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	configs, err := h.entryService.ListRecurring(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list recurring configs")
		return NewInternalError(c, "Failed to list recurring configs")
	}

	response := make([]RecurringConfigResponse, len(configs))
	for i, config := range configs {
		response[i] = toRecurringConfigResponse(config)
	}

	return c.JSON(http.StatusOK, response)
}

// Helper function to convert domain.RecurringConfig to RecurringConfigResponse
func toRecurringConfigResponse(config *domain.RecurringConfig) RecurringConfigResponse {
	resp := RecurringConfigResponse{
		ID:        config.ID.String(),
		Frequency: string(config.Frequency),
		Interval:  config.Interval,
		Every:     config.Every,
		StartDate: config.StartDate.Format("2006-01-02"),
		CreatedAt: config.CreatedAt.Format(time.RFC3339),
	}
	if config.EndDate != nil {
		endDate := config.EndDate.Format("2006-01-02")
		resp.EndDate = &endDate
	}
	return resp
}
