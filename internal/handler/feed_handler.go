package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// FeedHandler handles projected feed HTTP requests
type FeedHandler struct {
	projectionService *service.ProjectionService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(projectionService *service.ProjectionService) *FeedHandler {
	return &FeedHandler{projectionService: projectionService}
}

// EntryDetailsResponse represents the resolved fields of a feed occurrence
type EntryDetailsResponse struct {
	EntryID      string  `json:"entryId"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
	Fullfilled   bool    `json:"fullfilled"`
	GroupID      *string `json:"groupId,omitempty"`
	GroupName    *string `json:"groupName,omitempty"`
	TagID        *string `json:"tagId,omitempty"`
	TagName      *string `json:"tagName,omitempty"`
	TagColor     *string `json:"tagColor,omitempty"`
	ReceiptKey   *string `json:"receiptKey,omitempty"`
}

// FeedItemResponse represents one line of the projected feed. ID is null for
// template occurrences that have no backing entry row yet.
type FeedItemResponse struct {
	ID                *string                  `json:"id"`
	Date              string                   `json:"date"`
	Index             int                      `json:"index"`
	Interval          int32                    `json:"interval"`
	RecurringConfigID *string                  `json:"recurringConfigId,omitempty"`
	ExclusionID       *string                  `json:"exclusionId,omitempty"`
	Config            *RecurringConfigResponse `json:"config,omitempty"`
	Details           EntryDetailsResponse     `json:"details"`
}

// FeedResponse represents the full projected feed
type FeedResponse struct {
	Items []FeedItemResponse `json:"items"`
	Until string             `json:"until"`
}

// GetFeed godoc
// @Summary Get the projected feed
// @Description Get all standalone entries merged with expanded recurring occurrences, sorted by date
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param until query string false "Horizon for unbounded series (YYYY-MM-DD), defaults to 12 months ahead"
// @Success 200 {object} FeedResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	horizon := service.DefaultHorizon()
	if untilStr := c.QueryParam("until"); untilStr != "" {
		parsed, err := time.Parse("2006-01-02", untilStr)
		if err != nil {
			return NewValidationError(c, "Invalid until date (use YYYY-MM-DD)", nil)
		}
		horizon = parsed
	}

	feed, err := h.projectionService.BuildFeed(c.Request().Context(), userID, horizon)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return NewUnauthorizedError(c, "Authentication required")
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to build feed")
		return NewInternalError(c, "Failed to build feed")
	}

	response := FeedResponse{
		Items: make([]FeedItemResponse, len(feed)),
		Until: horizon.Format("2006-01-02"),
	}
	for i, item := range feed {
		response.Items[i] = toFeedItemResponse(item)
	}

	return c.JSON(http.StatusOK, response)
}

// toFeedItemResponse converts a domain.PopulatedEntry to FeedItemResponse
func toFeedItemResponse(item *domain.PopulatedEntry) FeedItemResponse {
	resp := FeedItemResponse{
		Date:     item.Date.Format("2006-01-02"),
		Index:    item.Index,
		Interval: item.Interval,
		Details:  toEntryDetailsResponse(item.Details),
	}
	if item.ID != nil {
		id := item.ID.String()
		resp.ID = &id
	}
	if item.RecurringConfigID != nil {
		configID := item.RecurringConfigID.String()
		resp.RecurringConfigID = &configID
	}
	if item.ExclusionID != nil {
		exclusionID := item.ExclusionID.String()
		resp.ExclusionID = &exclusionID
	}
	if item.Config != nil {
		config := toRecurringConfigResponse(item.Config)
		resp.Config = &config
	}
	return resp
}

// toEntryDetailsResponse converts domain.EntryDetails to EntryDetailsResponse
func toEntryDetailsResponse(details domain.EntryDetails) EntryDetailsResponse {
	resp := EntryDetailsResponse{
		EntryID:      details.EntryID.String(),
		Name:         details.Name,
		Type:         string(details.Type),
		Amount:       details.Amount.StringFixed(2),
		CurrencyCode: details.CurrencyCode,
		Fullfilled:   details.Fullfilled,
		GroupName:    details.GroupName,
		TagName:      details.TagName,
		TagColor:     details.TagColor,
		ReceiptKey:   details.ReceiptKey,
	}
	if details.GroupID != nil {
		groupID := details.GroupID.String()
		resp.GroupID = &groupID
	}
	if details.TagID != nil {
		tagID := details.TagID.String()
		resp.TagID = &tagID
	}
	return resp
}
