package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
)

const (
	MaxReceiptSize     = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth    = 50
	MinReceiptHeight   = 50
	ThumbnailWidth     = 200
	JPEGQuality        = 85
	receiptURLValidity = 15 * time.Minute
)

var (
	ErrReceiptTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat        = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptData          = errors.New("invalid image data")
	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
	ErrNoReceipt                   = errors.New("entry has no receipt")
)

// AllowedReceiptExtensions maps extensions to content types
var AllowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptMetadata contains presigned URLs for a stored receipt image
type ReceiptMetadata struct {
	Key          string `json:"key"`
	ThumbnailURL string `json:"thumbnailUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// ReceiptService handles receipt image processing and storage. Images are
// stored privately as a thumbnail and original variant under a base object
// key kept on the entry row; reads go through short-lived presigned URLs.
type ReceiptService struct {
	storage   storage.ReceiptRepository
	entryRepo domain.EntryRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, entryRepo domain.EntryRepository) *ReceiptService {
	return &ReceiptService{storage: storage, entryRepo: entryRepo}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured)
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

func variantKey(baseKey, variant string) string {
	return baseKey + "_" + variant + ".jpg"
}

// AttachReceipt validates and processes a receipt image, uploads its
// variants, and records the base key on the entry. An existing receipt on
// the entry is replaced.
func (s *ReceiptService) AttachReceipt(ctx context.Context, userID string, entryID uuid.UUID, data []byte, filename string) (*ReceiptMetadata, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	entry, err := s.entryRepo.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	baseKey := fmt.Sprintf("%s/receipts/%s/%s", userID, entryID.String(), uuid.New().String())

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"original", 0}, // 0 means keep original size
	}

	uploaded := make([]string, 0, len(variants))
	for _, variant := range variants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			// Resize maintaining aspect ratio
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.cleanupObjects(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		key := variantKey(baseKey, variant.name)
		if err := s.storage.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanupObjects(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, key)
	}

	oldKey := entry.ReceiptKey

	if err := s.entryRepo.SetReceiptKey(ctx, userID, entryID, &baseKey); err != nil {
		s.cleanupObjects(ctx, uploaded)
		return nil, err
	}

	if oldKey != nil {
		s.deleteVariants(ctx, *oldKey)
	}

	log.Info().
		Str("user_id", userID).
		Str("entry_id", entryID.String()).
		Str("receipt_key", baseKey).
		Msg("Receipt attached")

	return s.presignMetadata(ctx, baseKey)
}

// RemoveReceipt deletes an entry's receipt image and clears its key
func (s *ReceiptService) RemoveReceipt(ctx context.Context, userID string, entryID uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if !s.IsEnabled() {
		return ErrReceiptStorageNotConfigured
	}

	entry, err := s.entryRepo.GetByID(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if entry.ReceiptKey == nil {
		return ErrNoReceipt
	}

	if err := s.entryRepo.SetReceiptKey(ctx, userID, entryID, nil); err != nil {
		return err
	}

	s.deleteVariants(ctx, *entry.ReceiptKey)

	log.Info().
		Str("user_id", userID).
		Str("entry_id", entryID.String()).
		Msg("Receipt removed")

	return nil
}

// ReceiptURLs returns fresh presigned URLs for an entry's receipt
func (s *ReceiptService) ReceiptURLs(ctx context.Context, userID string, entryID uuid.UUID) (*ReceiptMetadata, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	entry, err := s.entryRepo.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.ReceiptKey == nil {
		return nil, ErrNoReceipt
	}

	return s.presignMetadata(ctx, *entry.ReceiptKey)
}

func (s *ReceiptService) presignMetadata(ctx context.Context, baseKey string) (*ReceiptMetadata, error) {
	thumbURL, err := s.storage.PresignURL(ctx, variantKey(baseKey, "thumb"), receiptURLValidity)
	if err != nil {
		return nil, fmt.Errorf("failed to presign thumbnail: %w", err)
	}
	originalURL, err := s.storage.PresignURL(ctx, variantKey(baseKey, "original"), receiptURLValidity)
	if err != nil {
		return nil, fmt.Errorf("failed to presign original: %w", err)
	}
	return &ReceiptMetadata{
		Key:          baseKey,
		ThumbnailURL: thumbURL,
		OriginalURL:  originalURL,
	}, nil
}

// cleanupObjects removes objects uploaded during a failed operation,
// best effort
func (s *ReceiptService) cleanupObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to clean up receipt object")
		}
	}
}

// deleteVariants removes all stored variants of a receipt, best effort
func (s *ReceiptService) deleteVariants(ctx context.Context, baseKey string) {
	for _, variant := range []string{"thumb", "original"} {
		key := variantKey(baseKey, variant)
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete receipt variant")
		}
	}
}
