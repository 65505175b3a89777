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
	"github.com/shopspring/decimal"
)

// EntryHandler handles entry creation and feed occurrence mutations
type EntryHandler struct {
	entryService    *service.EntryService
	mutationService *service.MutationService
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(entryService *service.EntryService, mutationService *service.MutationService) *EntryHandler {
	return &EntryHandler{
		entryService:    entryService,
		mutationService: mutationService,
	}
}

// CreateEntryRequest represents the create entry request body
type CreateEntryRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode,omitempty"`
	Date         string  `json:"date"`
	Fullfilled   bool    `json:"fullfilled"`
	GroupID      *string `json:"groupId,omitempty"`
	TagID        *string `json:"tagId,omitempty"`
}

// CreateRecurringEntryRequest represents the create recurring entry request body
type CreateRecurringEntryRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode,omitempty"`
	StartDate    string  `json:"startDate"`
	Fullfilled   bool    `json:"fullfilled"`
	GroupID      *string `json:"groupId,omitempty"`
	TagID        *string `json:"tagId,omitempty"`
	Frequency    string  `json:"frequency"`
	Interval     int32   `json:"interval"`
	Every        int32   `json:"every"`
	EndDate      *string `json:"endDate,omitempty"`
}

// EntryResponse represents an entry in API responses
type EntryResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
	Date         string  `json:"date"`
	Fullfilled   bool    `json:"fullfilled"`
	RecurringID  *string `json:"recurringId,omitempty"`
	GroupID      *string `json:"groupId,omitempty"`
	TagID        *string `json:"tagId,omitempty"`
	ReceiptKey   *string `json:"receiptKey,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// RecurringSeriesResponse represents a created recurring series
type RecurringSeriesResponse struct {
	Config RecurringConfigResponse `json:"config"`
	Anchor EntryResponse           `json:"anchor"`
}

// OccurrenceRefRequest addresses one feed occurrence in mutation requests.
// For a standalone entry only entryId is set; series occurrences carry the
// recurringConfigId, date and index stamped on the projected feed item.
type OccurrenceRefRequest struct {
	EntryID           *string `json:"entryId,omitempty"`
	RecurringConfigID *string `json:"recurringConfigId,omitempty"`
	ExclusionID       *string `json:"exclusionId,omitempty"`
	Date              string  `json:"date,omitempty"`
	Index             int     `json:"index,omitempty"`
	SkipRefresh       bool    `json:"skipRefresh,omitempty"`
}

// EditOccurrenceRequest represents the edit occurrence request body
type EditOccurrenceRequest struct {
	OccurrenceRefRequest
	Name               string  `json:"name"`
	Amount             string  `json:"amount"`
	GroupID            *string `json:"groupId,omitempty"`
	TagID              *string `json:"tagId,omitempty"`
	ApplyToSubsequents bool    `json:"applyToSubsequents,omitempty"`
}

// DeleteOccurrenceRequest represents the delete occurrence request body
type DeleteOccurrenceRequest struct {
	OccurrenceRefRequest
	WithSubsequents bool `json:"withSubsequents,omitempty"`
}

// CreateEntry godoc
// @Summary Create a standalone entry
// @Description Create a new income or expense entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEntryRequest true "Entry creation request"
// @Success 201 {object} EntryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /entries [post]
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	groupID, err := parseOptionalUUID(req.GroupID)
	if err != nil {
		return NewValidationError(c, "Invalid groupId", nil)
	}
	tagID, err := parseOptionalUUID(req.TagID)
	if err != nil {
		return NewValidationError(c, "Invalid tagId", nil)
	}

	currencyCode := req.CurrencyCode
	if currencyCode == "" {
		currencyCode = "EUR"
	}

	input := service.CreateEntryInput{
		Name:         req.Name,
		Type:         domain.EntryType(req.Type),
		Amount:       amount,
		CurrencyCode: currencyCode,
		Date:         date,
		Fullfilled:   req.Fullfilled,
		GroupID:      groupID,
		TagID:        tagID,
	}

	entry, err := h.entryService.CreateEntry(c.Request().Context(), userID, input)
	if err != nil {
		if resp := entryValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create entry")
		return NewInternalError(c, "Failed to create entry")
	}

	return c.JSON(http.StatusCreated, toEntryResponse(entry))
}

// CreateRecurringEntry godoc
// @Summary Create a recurring series
// @Description Create a recurrence rule together with its anchor entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRecurringEntryRequest true "Recurring entry creation request"
// @Success 201 {object} RecurringSeriesResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /entries/recurring [post]
func (h *EntryHandler) CreateRecurringEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateRecurringEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return NewValidationError(c, "Invalid endDate", []ValidationError{
				{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		endDate = &parsed
	}

	groupID, err := parseOptionalUUID(req.GroupID)
	if err != nil {
		return NewValidationError(c, "Invalid groupId", nil)
	}
	tagID, err := parseOptionalUUID(req.TagID)
	if err != nil {
		return NewValidationError(c, "Invalid tagId", nil)
	}

	currencyCode := req.CurrencyCode
	if currencyCode == "" {
		currencyCode = "EUR"
	}

	input := service.CreateRecurringEntryInput{
		Name:         req.Name,
		Type:         domain.EntryType(req.Type),
		Amount:       amount,
		CurrencyCode: currencyCode,
		StartDate:    startDate,
		Fullfilled:   req.Fullfilled,
		GroupID:      groupID,
		TagID:        tagID,
		Frequency:    domain.Frequency(req.Frequency),
		Interval:     req.Interval,
		Every:        req.Every,
		EndDate:      endDate,
	}

	series, err := h.entryService.CreateRecurringEntry(c.Request().Context(), userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFrequency) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "frequency", Message: "Must be one of: week, month, year"},
			})
		}
		if errors.Is(err, domain.ErrInvalidEvery) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "every", Message: "Must be at least 1"},
			})
		}
		if errors.Is(err, domain.ErrInvalidInterval) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "interval", Message: "Must not be negative"},
			})
		}
		if resp := entryValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create recurring entry")
		return NewInternalError(c, "Failed to create recurring entry")
	}

	return c.JSON(http.StatusCreated, RecurringSeriesResponse{
		Config: toRecurringConfigResponse(series.Config),
		Anchor: toEntryResponse(series.Anchor),
	})
}

// ToggleFulfilled godoc
// @Summary Toggle an occurrence's fulfilled flag
// @Description Flip the fulfilled state of a feed occurrence, materializing series occurrences on first touch
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OccurrenceRefRequest true "Occurrence reference"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /feed/entries/toggle [patch]
func (h *EntryHandler) ToggleFulfilled(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req OccurrenceRefRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ref, err := parseOccurrenceRef(req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	opts := service.MutationOptions{SkipRefresh: req.SkipRefresh}
	if err := h.mutationService.ToggleFulfilled(c.Request().Context(), userID, ref, opts); err != nil {
		return occurrenceMutationResponse(c, userID, err, "Failed to toggle fulfilled state")
	}

	return c.NoContent(http.StatusNoContent)
}

// EditOccurrence godoc
// @Summary Edit a feed occurrence
// @Description Edit one occurrence copy-on-write, or split the series when applyToSubsequents is set
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EditOccurrenceRequest true "Occurrence edit request"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /feed/entries/edit [post]
func (h *EntryHandler) EditOccurrence(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req EditOccurrenceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ref, err := parseOccurrenceRef(req.OccurrenceRefRequest)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	groupID, err := parseOptionalUUID(req.GroupID)
	if err != nil {
		return NewValidationError(c, "Invalid groupId", nil)
	}
	tagID, err := parseOptionalUUID(req.TagID)
	if err != nil {
		return NewValidationError(c, "Invalid tagId", nil)
	}

	input := service.EditOccurrenceInput{
		Name:               req.Name,
		Amount:             amount,
		GroupID:            groupID,
		TagID:              tagID,
		ApplyToSubsequents: req.ApplyToSubsequents,
	}

	opts := service.MutationOptions{SkipRefresh: req.SkipRefresh}
	if err := h.mutationService.EditOccurrence(c.Request().Context(), userID, ref, input, opts); err != nil {
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
		if errors.Is(err, domain.ErrInvalidAmount) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		return occurrenceMutationResponse(c, userID, err, "Failed to edit occurrence")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteOccurrence godoc
// @Summary Delete a feed occurrence
// @Description Delete one occurrence, or the occurrence and all its subsequents when withSubsequents is set
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteOccurrenceRequest true "Occurrence delete request"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /feed/entries/delete [post]
func (h *EntryHandler) DeleteOccurrence(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req DeleteOccurrenceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ref, err := parseOccurrenceRef(req.OccurrenceRefRequest)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	opts := service.MutationOptions{SkipRefresh: req.SkipRefresh}
	if err := h.mutationService.DeleteOccurrence(c.Request().Context(), userID, ref, req.WithSubsequents, opts); err != nil {
		return occurrenceMutationResponse(c, userID, err, "Failed to delete occurrence")
	}

	return c.NoContent(http.StatusNoContent)
}

// entryValidationResponse maps shared entry field validation errors to
// problem responses; nil means the error is not a validation error
func entryValidationResponse(c echo.Context, err error) error {
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
	if errors.Is(err, domain.ErrInvalidEntryType) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	}
	if errors.Is(err, domain.ErrInvalidAmount) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	}
	if errors.Is(err, domain.ErrInvalidCurrency) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currencyCode", Message: "Must be a 3-letter currency code"},
		})
	}
	if errors.Is(err, domain.ErrGroupNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "groupId", Message: "Group not found"},
		})
	}
	if errors.Is(err, domain.ErrTagNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "tagId", Message: "Tag not found"},
		})
	}
	return nil
}

// occurrenceMutationResponse maps mutation errors to problem responses
func occurrenceMutationResponse(c echo.Context, userID string, err error, detail string) error {
	if errors.Is(err, domain.ErrMissingOccurrence) {
		return NewValidationError(c, "Occurrence reference is incomplete", nil)
	}
	if errors.Is(err, domain.ErrEntryNotFound) {
		return NewNotFoundError(c, "Entry not found")
	}
	if errors.Is(err, domain.ErrRecurringNotFound) {
		return NewNotFoundError(c, "Recurring config not found")
	}
	if errors.Is(err, domain.ErrExclusionNotFound) {
		return NewNotFoundError(c, "Exclusion not found")
	}
	log.Error().Err(err).Str("user_id", userID).Msg(detail)
	return NewInternalError(c, detail)
}

// parseOccurrenceRef converts an OccurrenceRefRequest to a service ref
func parseOccurrenceRef(req OccurrenceRefRequest) (service.OccurrenceRef, error) {
	var ref service.OccurrenceRef

	entryID, err := parseOptionalUUID(req.EntryID)
	if err != nil {
		return ref, errors.New("invalid entryId")
	}
	configID, err := parseOptionalUUID(req.RecurringConfigID)
	if err != nil {
		return ref, errors.New("invalid recurringConfigId")
	}
	exclusionID, err := parseOptionalUUID(req.ExclusionID)
	if err != nil {
		return ref, errors.New("invalid exclusionId")
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return ref, errors.New("invalid date (use YYYY-MM-DD)")
		}
	}

	ref = service.OccurrenceRef{
		EntryID:           entryID,
		RecurringConfigID: configID,
		ExclusionID:       exclusionID,
		Date:              date,
		Index:             req.Index,
	}
	return ref, nil
}

// parseOptionalUUID parses a UUID string pointer; nil or empty means absent
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Helper function to convert domain.Entry to EntryResponse
func toEntryResponse(entry *domain.Entry) EntryResponse {
	resp := EntryResponse{
		ID:           entry.ID.String(),
		Name:         entry.Name,
		Type:         string(entry.Type),
		Amount:       entry.Amount.StringFixed(2),
		CurrencyCode: entry.CurrencyCode,
		Date:         entry.Date.Format("2006-01-02"),
		Fullfilled:   entry.Fullfilled,
		ReceiptKey:   entry.ReceiptKey,
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.RecurringID != nil {
		recurringID := entry.RecurringID.String()
		resp.RecurringID = &recurringID
	}
	if entry.GroupID != nil {
		groupID := entry.GroupID.String()
		resp.GroupID = &groupID
	}
	if entry.TagID != nil {
		tagID := entry.TagID.String()
		resp.TagID = &tagID
	}
	return resp
}
