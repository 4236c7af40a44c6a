package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// LedgerHandler handles ledger entry and transfer HTTP requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// CreateEntryRequest represents the create entry request body
type CreateEntryRequest struct {
	AccountID   int32   `json:"accountId"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	SubCategory *string `json:"subCategory,omitempty"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	EntryDate   string  `json:"entryDate"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateEntryRequest represents the update entry request body
type UpdateEntryRequest struct {
	AccountID   int32   `json:"accountId"`
	Category    string  `json:"category"`
	SubCategory *string `json:"subCategory,omitempty"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	EntryDate   string  `json:"entryDate"`
	Notes       *string `json:"notes,omitempty"`
}

// CreateTransferRequest represents the create transfer request body
type CreateTransferRequest struct {
	FromAccountID int32   `json:"fromAccountId"`
	ToAccountID   int32   `json:"toAccountId"`
	Amount        string  `json:"amount"`
	FXRate        *string `json:"fxRate,omitempty"`
	Description   string  `json:"description"`
	EntryDate     string  `json:"entryDate"`
	Notes         *string `json:"notes,omitempty"`
}

// entryDateLayout is the wire format for entry dates
const entryDateLayout = "2006-01-02"

// CreateEntry handles POST /api/v1/entries
func (h *LedgerHandler) CreateEntry(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
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
	entryDate, err := time.Parse(entryDateLayout, req.EntryDate)
	if err != nil {
		return NewValidationError(c, "Invalid entry date", []ValidationError{
			{Field: "entryDate", Message: "Must be YYYY-MM-DD"},
		})
	}

	entry, err := h.ledgerService.CreateEntry(workspaceID, service.CreateEntryInput{
		AccountID:   req.AccountID,
		Kind:        domain.EntryKind(req.Kind),
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Description: req.Description,
		Amount:      amount,
		EntryDate:   entryDate,
		Notes:       req.Notes,
	})
	if err != nil {
		return h.mapEntryError(c, workspaceID, err, "Failed to create entry")
	}

	return c.JSON(http.StatusCreated, entry)
}

// GetEntries handles GET /api/v1/entries
func (h *LedgerHandler) GetEntries(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters := &domain.EntryFilters{}

	if s := c.QueryParam("accountId"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return NewValidationError(c, "Invalid accountId", nil)
		}
		accountID := int32(id)
		filters.AccountID = &accountID
	}
	if s := c.QueryParam("kind"); s != "" {
		kind := domain.EntryKind(s)
		filters.Kind = &kind
	}
	if s := c.QueryParam("category"); s != "" {
		filters.Category = &s
	}
	if s := c.QueryParam("startDate"); s != "" {
		d, err := time.Parse(entryDateLayout, s)
		if err != nil {
			return NewValidationError(c, "Invalid startDate", nil)
		}
		filters.StartDate = &d
	}
	if s := c.QueryParam("endDate"); s != "" {
		d, err := time.Parse(entryDateLayout, s)
		if err != nil {
			return NewValidationError(c, "Invalid endDate", nil)
		}
		filters.EndDate = &d
	}
	if s := c.QueryParam("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return NewValidationError(c, "Invalid page", nil)
		}
		filters.Page = int32(page)
	}
	if s := c.QueryParam("pageSize"); s != "" {
		pageSize, err := strconv.Atoi(s)
		if err != nil {
			return NewValidationError(c, "Invalid pageSize", nil)
		}
		filters.PageSize = int32(pageSize)
	}

	result, err := h.ledgerService.GetEntries(workspaceID, filters)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get entries")
		return NewInternalError(c, "Failed to get entries")
	}

	return c.JSON(http.StatusOK, result)
}

// GetEntry handles GET /api/v1/entries/:id
func (h *LedgerHandler) GetEntry(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	entry, err := h.ledgerService.GetEntryByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("entry_id", id).Msg("Failed to get entry")
		return NewInternalError(c, "Failed to get entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// UpdateEntry handles PUT /api/v1/entries/:id
func (h *LedgerHandler) UpdateEntry(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	var req UpdateEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	entryDate, err := time.Parse(entryDateLayout, req.EntryDate)
	if err != nil {
		return NewValidationError(c, "Invalid entry date", []ValidationError{
			{Field: "entryDate", Message: "Must be YYYY-MM-DD"},
		})
	}

	entry, err := h.ledgerService.UpdateEntry(workspaceID, int32(id), &domain.UpdateEntryData{
		AccountID:   req.AccountID,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Description: req.Description,
		Amount:      amount,
		EntryDate:   entryDate,
		Notes:       req.Notes,
	})
	if err != nil {
		return h.mapEntryError(c, workspaceID, err, "Failed to update entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/v1/entries/:id.
// Deleting either leg of a transfer removes both.
func (h *LedgerHandler) DeleteEntry(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	if err := h.ledgerService.DeleteEntry(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("entry_id", id).Msg("Failed to delete entry")
		return NewInternalError(c, "Failed to delete entry")
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateTransfer handles POST /api/v1/entries/transfers
func (h *LedgerHandler) CreateTransfer(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateTransferRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	entryDate, err := time.Parse(entryDateLayout, req.EntryDate)
	if err != nil {
		return NewValidationError(c, "Invalid entry date", []ValidationError{
			{Field: "entryDate", Message: "Must be YYYY-MM-DD"},
		})
	}

	var fxRate *decimal.Decimal
	if req.FXRate != nil && *req.FXRate != "" {
		rate, err := decimal.NewFromString(*req.FXRate)
		if err != nil {
			return NewValidationError(c, "Invalid FX rate", []ValidationError{
				{Field: "fxRate", Message: "Must be a valid decimal number"},
			})
		}
		fxRate = &rate
	}

	result, err := h.ledgerService.CreateTransfer(workspaceID, service.CreateTransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		FXRate:        fxRate,
		Description:   req.Description,
		EntryDate:     entryDate,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSameAccountTransfer) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "toAccountId", Message: "Transfer accounts must differ"},
			})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fxRate", Message: "A positive FX rate is required for cross-currency transfers"},
			})
		}
		return h.mapEntryError(c, workspaceID, err, "Failed to create transfer")
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *LedgerHandler) mapEntryError(c echo.Context, workspaceID int32, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account not found")
	case errors.Is(err, domain.ErrEntryNotFound):
		return NewNotFoundError(c, "Entry not found")
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category", Message: "Category is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category", Message: "Category must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", nil)
	default:
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg(logMsg)
		return NewInternalError(c, logMsg)
	}
}
