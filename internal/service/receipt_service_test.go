package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

// createTestImage creates a test image of the specified size and format
func createTestImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	var filename string

	switch format {
	case "png":
		png.Encode(&buf, img)
		filename = "receipt.png"
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		filename = "receipt.jpg"
	}

	return buf.Bytes(), filename
}

func setupReceiptService() (*ReceiptService, *testutil.MockReceiptRepository, *testutil.MockEntryRepository, *domain.Entry) {
	storageRepo := testutil.NewMockReceiptRepository()
	entryRepo := testutil.NewMockEntryRepository()
	entry, _ := entryRepo.Create(context.Background(), &domain.Entry{
		UserID:       testUser,
		Name:         "Dinner",
		Type:         domain.EntryTypeExpense,
		Amount:       decimal.NewFromInt(60),
		CurrencyCode: "EUR",
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	return NewReceiptService(storageRepo, entryRepo), storageRepo, entryRepo, entry
}

func TestAttachReceipt_StoresVariantsAndKey(t *testing.T) {
	svc, storageRepo, entryRepo, entry := setupReceiptService()

	data, filename := createTestImage(400, 300, "jpeg")
	metadata, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if metadata.Key == "" {
		t.Fatal("expected a base key")
	}
	if metadata.ThumbnailURL == "" || metadata.OriginalURL == "" {
		t.Error("expected presigned URLs for both variants")
	}

	// Both variants uploaded under the base key
	if len(storageRepo.Objects) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(storageRepo.Objects))
	}
	if _, ok := storageRepo.Objects[metadata.Key+"_thumb.jpg"]; !ok {
		t.Error("expected thumbnail variant to be stored")
	}
	if _, ok := storageRepo.Objects[metadata.Key+"_original.jpg"]; !ok {
		t.Error("expected original variant to be stored")
	}

	stored := entryRepo.Entries[entry.ID]
	if stored.ReceiptKey == nil || *stored.ReceiptKey != metadata.Key {
		t.Error("expected receipt key to be recorded on the entry")
	}
}

func TestAttachReceipt_AcceptsPNG(t *testing.T) {
	svc, _, _, entry := setupReceiptService()

	data, filename := createTestImage(200, 200, "png")
	if _, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAttachReceipt_ReplacesExisting(t *testing.T) {
	svc, storageRepo, _, entry := setupReceiptService()

	data, filename := createTestImage(400, 300, "jpeg")
	first, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second.Key == first.Key {
		t.Error("expected a new base key for the replacement")
	}

	// Old variants are gone, only the new pair remains
	if len(storageRepo.Objects) != 2 {
		t.Errorf("expected 2 stored objects after replacement, got %d", len(storageRepo.Objects))
	}
	if _, ok := storageRepo.Objects[first.Key+"_thumb.jpg"]; ok {
		t.Error("expected old thumbnail to be deleted")
	}
}

func TestAttachReceipt_Validation(t *testing.T) {
	svc, _, _, entry := setupReceiptService()

	t.Run("too large", func(t *testing.T) {
		data := make([]byte, MaxReceiptSize+1)
		_, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, "receipt.jpg")
		if !errors.Is(err, ErrReceiptTooLarge) {
			t.Errorf("expected ErrReceiptTooLarge, got %v", err)
		}
	})

	t.Run("bad extension", func(t *testing.T) {
		data, _ := createTestImage(100, 100, "jpeg")
		_, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, "receipt.gif")
		if !errors.Is(err, ErrInvalidReceiptFormat) {
			t.Errorf("expected ErrInvalidReceiptFormat, got %v", err)
		}
	})

	t.Run("too small", func(t *testing.T) {
		data, filename := createTestImage(20, 20, "jpeg")
		_, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename)
		if !errors.Is(err, ErrReceiptTooSmall) {
			t.Errorf("expected ErrReceiptTooSmall, got %v", err)
		}
	})

	t.Run("garbage data", func(t *testing.T) {
		_, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, []byte("not an image"), "receipt.jpg")
		if !errors.Is(err, ErrInvalidReceiptData) {
			t.Errorf("expected ErrInvalidReceiptData, got %v", err)
		}
	})
}

func TestAttachReceipt_EntryNotFound(t *testing.T) {
	svc, _, _, _ := setupReceiptService()

	data, filename := createTestImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), testUser, uuid.New(), data, filename)
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestAttachReceipt_StorageNotConfigured(t *testing.T) {
	entryRepo := testutil.NewMockEntryRepository()
	svc := NewReceiptService(nil, entryRepo)

	data, filename := createTestImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), testUser, uuid.New(), data, filename)
	if !errors.Is(err, ErrReceiptStorageNotConfigured) {
		t.Errorf("expected ErrReceiptStorageNotConfigured, got %v", err)
	}
}

func TestRemoveReceipt(t *testing.T) {
	svc, storageRepo, entryRepo, entry := setupReceiptService()

	data, filename := createTestImage(200, 200, "jpeg")
	if _, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.RemoveReceipt(context.Background(), testUser, entry.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(storageRepo.Objects) != 0 {
		t.Errorf("expected all variants deleted, got %d objects", len(storageRepo.Objects))
	}
	if entryRepo.Entries[entry.ID].ReceiptKey != nil {
		t.Error("expected receipt key to be cleared")
	}
}

func TestRemoveReceipt_NoReceipt(t *testing.T) {
	svc, _, _, entry := setupReceiptService()

	err := svc.RemoveReceipt(context.Background(), testUser, entry.ID)
	if !errors.Is(err, ErrNoReceipt) {
		t.Errorf("expected ErrNoReceipt, got %v", err)
	}
}

func TestReceiptURLs(t *testing.T) {
	svc, _, _, entry := setupReceiptService()

	data, filename := createTestImage(200, 200, "jpeg")
	attached, err := svc.AttachReceipt(context.Background(), testUser, entry.ID, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	urls, err := svc.ReceiptURLs(context.Background(), testUser, entry.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if urls.Key != attached.Key {
		t.Errorf("expected key %q, got %q", attached.Key, urls.Key)
	}
	if urls.ThumbnailURL == "" || urls.OriginalURL == "" {
		t.Error("expected presigned URLs for both variants")
	}
}
