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

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	balanceService *service.BalanceService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, balanceService *service.BalanceService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		balanceService: balanceService,
	}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name           string `json:"name"`
	AccountType    string `json:"accountType"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

// UpdateAccountRequest represents the update account request body
type UpdateAccountRequest struct {
	Name           string `json:"name"`
	CashAdjustment string `json:"cashAdjustment,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             int32   `json:"id"`
	WorkspaceID    int32   `json:"workspaceId"`
	Name           string  `json:"name"`
	AccountType    string  `json:"accountType"`
	Currency       string  `json:"currency"`
	InitialBalance string  `json:"initialBalance"`
	CashAdjustment string  `json:"cashAdjustment"`
	Balance        *string `json:"balance,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
	DeletedAt      *string `json:"deletedAt,omitempty"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initial balance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
	}

	input := service.CreateAccountInput{
		Name:           req.Name,
		AccountType:    domain.AccountType(req.AccountType),
		Currency:       domain.Currency(req.Currency),
		InitialBalance: initialBalance,
	}

	account, err := h.accountService.CreateAccount(workspaceID, input)
	if err != nil {
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
		if errors.Is(err, domain.ErrInvalidAccountType) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountType", Message: "Account type must be one of: checking, savings, securities, card"},
			})
		}
		if errors.Is(err, domain.ErrInvalidCurrency) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "currency", Message: "Currency must be KRW or USD"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create account")
		return NewInternalError(c, "Failed to create account")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account created")

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	includeArchived := c.QueryParam("includeArchived") == "true"

	accounts, err := h.accountService.GetAccounts(workspaceID, includeArchived)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get accounts")
		return NewInternalError(c, "Failed to get accounts")
	}

	balances, err := h.balanceService.GetBalances(c.Request().Context(), workspaceID, time.Time{})
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to derive balances")
		return NewInternalError(c, "Failed to derive balances")
	}
	byAccount := make(map[int32]*service.AccountBalance, len(balances))
	for _, b := range balances {
		byAccount[b.AccountID] = b
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		resp := toAccountResponse(account)
		if b, ok := byAccount[account.ID]; ok {
			balance := b.Balance.String()
			resp.Balance = &balance
		}
		response[i] = resp
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	cashAdjustment := decimal.Zero
	if req.CashAdjustment != "" {
		cashAdjustment, err = decimal.NewFromString(req.CashAdjustment)
		if err != nil {
			return NewValidationError(c, "Invalid cash adjustment", []ValidationError{
				{Field: "cashAdjustment", Message: "Must be a valid decimal number"},
			})
		}
	}

	account, err := h.accountService.UpdateAccount(workspaceID, int32(id), &domain.UpdateAccountData{
		Name:           req.Name,
		CashAdjustment: cashAdjustment,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
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
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("account_id", id).Msg("Failed to update account")
		return NewInternalError(c, "Failed to update account")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account updated")
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.DeleteAccount(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("account_id", id).Msg("Failed to delete account")
		return NewInternalError(c, "Failed to delete account")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("account_id", id).Msg("Account deleted (soft)")
	return c.NoContent(http.StatusNoContent)
}

// GetBalances handles GET /api/v1/accounts/balances
func (h *AccountHandler) GetBalances(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	through := time.Time{}
	if s := c.QueryParam("through"); s != "" {
		var err error
		through, err = time.Parse("2006-01-02", s)
		if err != nil {
			return NewValidationError(c, "Invalid through date", []ValidationError{
				{Field: "through", Message: "Must be YYYY-MM-DD"},
			})
		}
	}

	balances, err := h.balanceService.GetBalances(c.Request().Context(), workspaceID, through)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to derive balances")
		return NewInternalError(c, "Failed to derive balances")
	}

	return c.JSON(http.StatusOK, balances)
}

func toAccountResponse(account *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:             account.ID,
		WorkspaceID:    account.WorkspaceID,
		Name:           account.Name,
		AccountType:    string(account.AccountType),
		Currency:       string(account.Currency),
		InitialBalance: account.InitialBalance.String(),
		CashAdjustment: account.CashAdjustment.String(),
		CreatedAt:      account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      account.UpdatedAt.Format(time.RFC3339),
	}
	if account.DeletedAt != nil {
		deletedAt := account.DeletedAt.Format(time.RFC3339)
		resp.DeletedAt = &deletedAt
	}
	return resp
}
