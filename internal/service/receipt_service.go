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
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/repository/storage"
)

const (
	MaxReceiptSize     = 5 * 1024 * 1024 // 5MB
	ReceiptMaxWidth    = 1200
	ReceiptJPEGQuality = 85

	// receiptURLExpiry is how long presigned download links stay valid
	receiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptType   = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrInvalidReceiptData   = errors.New("invalid image data")
	ErrStorageNotConfigured = errors.New("receipt storage not configured")
)

// allowedReceiptExtensions maps extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptService attaches receipt images to ledger entries. Images are
// normalized to bounded JPEGs before upload so storage stays predictable
// regardless of what the phone camera produced.
type ReceiptService struct {
	storage    storage.ReceiptRepository
	ledgerRepo domain.LedgerRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, ledgerRepo domain.LedgerRepository) *ReceiptService {
	return &ReceiptService{storage: storage, ledgerRepo: ledgerRepo}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// AttachReceipt validates, resizes and uploads a receipt image for an
// entry, replacing any previous receipt
func (s *ReceiptService) AttachReceipt(ctx context.Context, workspaceID int32, entryID int32, data []byte, filename string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrStorageNotConfigured
	}

	entry, err := s.ledgerRepo.GetByID(workspaceID, entryID)
	if err != nil {
		return "", err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return "", err
	}

	if img.Bounds().Dx() > ReceiptMaxWidth {
		img = imaging.Resize(img, ReceiptMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ReceiptJPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}

	key := fmt.Sprintf("%d/receipts/%d/%s.jpg", workspaceID, entryID, uuid.New().String())
	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	// Replace, then best-effort delete the old object
	oldKey := entry.ReceiptKey
	if err := s.ledgerRepo.SetReceiptKey(workspaceID, entryID, &key); err != nil {
		_ = s.storage.Delete(ctx, key)
		return "", err
	}
	if oldKey != nil {
		if err := s.storage.Delete(ctx, *oldKey); err != nil {
			log.Warn().Err(err).Str("key", *oldKey).Msg("Failed to delete replaced receipt")
		}
	}

	return key, nil
}

// GetReceiptURL returns a short-lived download link for an entry's receipt
func (s *ReceiptService) GetReceiptURL(ctx context.Context, workspaceID int32, entryID int32) (string, error) {
	if !s.IsEnabled() {
		return "", ErrStorageNotConfigured
	}

	entry, err := s.ledgerRepo.GetByID(workspaceID, entryID)
	if err != nil {
		return "", err
	}
	if entry.ReceiptKey == nil {
		return "", domain.ErrReceiptNotFound
	}

	return s.storage.GeneratePresignedURL(ctx, *entry.ReceiptKey, receiptURLExpiry)
}

// RemoveReceipt detaches and deletes an entry's receipt
func (s *ReceiptService) RemoveReceipt(ctx context.Context, workspaceID int32, entryID int32) error {
	if !s.IsEnabled() {
		return ErrStorageNotConfigured
	}

	entry, err := s.ledgerRepo.GetByID(workspaceID, entryID)
	if err != nil {
		return err
	}
	if entry.ReceiptKey == nil {
		return domain.ErrReceiptNotFound
	}

	key := *entry.ReceiptKey
	if err := s.ledgerRepo.SetReceiptKey(workspaceID, entryID, nil); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete detached receipt")
	}
	return nil
}

func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptType
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}
	return img, nil
}
