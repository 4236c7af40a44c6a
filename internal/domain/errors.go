package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrEntryNotFound     = errors.New("ledger entry not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrTradeNotFound     = errors.New("trade not found")
	ErrPlanNotFound      = errors.New("DCA plan not found")
	ErrQuoteNotFound     = errors.New("quote not found")
	ErrAPITokenNotFound  = errors.New("API token not found")
	ErrReceiptNotFound   = errors.New("receipt not found")

	ErrNameRequired         = errors.New("name is required")
	ErrNameTooLong          = errors.New("name exceeds maximum length")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrCategoryInUse        = errors.New("category has ledger entries")
	ErrSameAccountTransfer  = errors.New("transfer accounts must differ")
	ErrNotSecuritiesAccount = errors.New("account does not hold securities")
	ErrInsufficientShares   = errors.New("sell quantity exceeds held shares")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrTooManyAPITokens     = errors.New("too many API tokens for workspace")
)

// Validation constants
const (
	MaxAccountNameLength  = 255
	MaxCategoryNameLength = 100
	MaxDescriptionLength  = 500
)
