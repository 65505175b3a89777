package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler handles receipt image HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptResponse represents a stored receipt in API responses
type ReceiptResponse struct {
	Key          string `json:"key"`
	ThumbnailURL string `json:"thumbnailUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// UploadReceipt godoc
// @Summary Attach a receipt image to an entry
// @Description Upload a receipt image; it is stored privately as original and thumbnail variants
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param file formData file true "Receipt image (JPEG, PNG or WebP, max 5MB)"
// @Success 201 {object} ReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /entries/{id}/receipt [post]
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	metadata, err := h.receiptService.AttachReceipt(c.Request().Context(), userID, entryID, data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return NewNotFoundError(c, "Entry not found")
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrReceiptTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case errors.Is(err, service.ErrInvalidReceiptData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Str("user_id", userID).Str("entry_id", entryID.String()).Msg("Failed to upload receipt")
			return NewInternalError(c, "Failed to upload receipt")
		}
	}

	return c.JSON(http.StatusCreated, toReceiptResponse(metadata))
}

// GetReceiptURLs godoc
// @Summary Get receipt URLs for an entry
// @Description Get short-lived presigned URLs for the entry's receipt variants
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} ReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /entries/{id}/receipt [get]
func (h *ReceiptHandler) GetReceiptURLs(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt storage is not configured")
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	metadata, err := h.receiptService.ReceiptURLs(c.Request().Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		if errors.Is(err, service.ErrNoReceipt) {
			return NewNotFoundError(c, "Entry has no receipt")
		}
		log.Error().Err(err).Str("user_id", userID).Str("entry_id", entryID.String()).Msg("Failed to get receipt URLs")
		return NewInternalError(c, "Failed to get receipt URLs")
	}

	return c.JSON(http.StatusOK, toReceiptResponse(metadata))
}

// DeleteReceipt godoc
// @Summary Remove an entry's receipt
// @Description Delete the stored receipt variants and clear the entry's receipt key
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /entries/{id}/receipt [delete]
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt storage is not configured")
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	if err := h.receiptService.RemoveReceipt(c.Request().Context(), userID, entryID); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		if errors.Is(err, service.ErrNoReceipt) {
			return NewNotFoundError(c, "Entry has no receipt")
		}
		log.Error().Err(err).Str("user_id", userID).Str("entry_id", entryID.String()).Msg("Failed to delete receipt")
		return NewInternalError(c, "Failed to delete receipt")
	}

	return c.NoContent(http.StatusNoContent)
}

// toReceiptResponse converts service.ReceiptMetadata to ReceiptResponse
func toReceiptResponse(metadata *service.ReceiptMetadata) ReceiptResponse {
	return ReceiptResponse{
		Key:          metadata.Key,
		ThumbnailURL: metadata.ThumbnailURL,
		OriginalURL:  metadata.OriginalURL,
	}
}
