package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// ReceiptHandler handles receipt attachments on ledger entries
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptURLResponse carries a short-lived download URL
type ReceiptURLResponse struct {
	URL string `json:"url"`
}

// UploadReceipt handles POST /api/v1/entries/:id/receipt
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	entryID, err := strconv.Atoi(c.Param("id"))
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

	key, err := h.receiptService.AttachReceipt(c.Request().Context(), workspaceID, int32(entryID), data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return NewNotFoundError(c, "Entry not found")
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptType):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrInvalidReceiptData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to upload receipt")
			return NewInternalError(c, "Failed to upload receipt")
		}
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("entry_id", entryID).
		Str("key", key).
		Msg("Receipt uploaded")

	return c.NoContent(http.StatusCreated)
}

// GetReceiptURL handles GET /api/v1/entries/:id/receipt
func (h *ReceiptHandler) GetReceiptURL(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	url, err := h.receiptService.GetReceiptURL(c.Request().Context(), workspaceID, int32(entryID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return NewNotFoundError(c, "Entry not found")
		case errors.Is(err, domain.ErrReceiptNotFound):
			return NewNotFoundError(c, "Entry has no receipt")
		default:
			log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get receipt URL")
			return NewInternalError(c, "Failed to get receipt URL")
		}
	}

	return c.JSON(http.StatusOK, ReceiptURLResponse{URL: url})
}

// DeleteReceipt handles DELETE /api/v1/entries/:id/receipt
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	if err := h.receiptService.RemoveReceipt(c.Request().Context(), workspaceID, int32(entryID)); err != nil {
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return NewNotFoundError(c, "Entry not found")
		case errors.Is(err, domain.ErrReceiptNotFound):
			return NewNotFoundError(c, "Entry has no receipt")
		default:
			log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to delete receipt")
			return NewInternalError(c, "Failed to delete receipt")
		}
	}

	return c.NoContent(http.StatusNoContent)
}
