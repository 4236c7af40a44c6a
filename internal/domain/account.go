package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeSecurities AccountType = "securities"
	AccountTypeCard       AccountType = "card"
)

// ValidAccountTypes lists every supported account type
var ValidAccountTypes = map[AccountType]bool{
	AccountTypeChecking:   true,
	AccountTypeSavings:    true,
	AccountTypeSecurities: true,
	AccountTypeCard:       true,
}

// IsLiability reports whether balances on this account type count against net worth
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCard
}

// Account represents a bank, securities or card account.
// Balance is always derived from history, never stored.
type Account struct {
	ID             int32           `json:"id"`
	WorkspaceID    int32           `json:"workspaceId"`
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	Currency       Currency        `json:"currency"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CashAdjustment decimal.Decimal `json:"cashAdjustment"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
}

// UpdateAccountData holds the mutable fields of an account
type UpdateAccountData struct {
	Name           string
	CashAdjustment decimal.Decimal
}

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(workspaceID int32, id int32) (*Account, error)
	GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*Account, error)
	Update(workspaceID int32, id int32, data *UpdateAccountData) (*Account, error)
	SoftDelete(workspaceID int32, id int32) error
}
