package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptRepository defines the interface for receipt image storage
type ReceiptRepository interface {
	Upload(ctx context.Context, objectKey string, data io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, objectKey string) error
	PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
