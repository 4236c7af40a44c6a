package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryKindIncome   EntryKind = "income"
	EntryKindExpense  EntryKind = "expense"
	EntryKindTransfer EntryKind = "transfer"
)

// TransferDirection marks which leg of a transfer pair an entry is
type TransferDirection string

const (
	TransferOut TransferDirection = "out"
	TransferIn  TransferDirection = "in"
)

// LedgerEntry is a single recorded income, expense or transfer leg.
// Transfers always exist as two entries (one per account) sharing a
// TransferPairID, so per-account folds never need to consult another row.
type LedgerEntry struct {
	ID             int32              `json:"id"`
	WorkspaceID    int32              `json:"workspaceId"`
	AccountID      int32              `json:"accountId"`
	Kind           EntryKind          `json:"kind"`
	Direction      *TransferDirection `json:"direction,omitempty"`
	Category       string             `json:"category"`
	SubCategory    *string            `json:"subCategory,omitempty"`
	Description    string             `json:"description"`
	Amount         decimal.Decimal    `json:"amount"`
	Currency       Currency           `json:"currency"`
	EntryDate      time.Time          `json:"entryDate"`
	TransferPairID *uuid.UUID         `json:"transferPairId,omitempty"`
	FXRate         *decimal.Decimal   `json:"fxRate,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	ReceiptKey     *string            `json:"receiptKey,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	DeletedAt      *time.Time         `json:"deletedAt,omitempty"`
}

// UpdateEntryData holds the mutable fields of a ledger entry
type UpdateEntryData struct {
	AccountID   int32
	Category    string
	SubCategory *string
	Description string
	Amount      decimal.Decimal
	EntryDate   time.Time
	Notes       *string
}

type EntryFilters struct {
	AccountID *int32
	Kind      *EntryKind
	Category  *string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int32
	PageSize  int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedEntries struct {
	Data       []*LedgerEntry `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// EntrySummary holds per-account sums over ledger entries
type EntrySummary struct {
	AccountID      int32
	SumIncome      decimal.Decimal
	SumExpense     decimal.Decimal
	SumTransferIn  decimal.Decimal
	SumTransferOut decimal.Decimal
}

// TransferNet returns inflows minus outflows
func (s *EntrySummary) TransferNet() decimal.Decimal {
	return s.SumTransferIn.Sub(s.SumTransferOut)
}

// TransferResult holds both legs of a created transfer
type TransferResult struct {
	FromEntry *LedgerEntry `json:"fromEntry"`
	ToEntry   *LedgerEntry `json:"toEntry"`
}

// LedgerRepository defines the interface for ledger entry persistence
type LedgerRepository interface {
	Create(entry *LedgerEntry) (*LedgerEntry, error)
	GetByID(workspaceID int32, id int32) (*LedgerEntry, error)
	GetByWorkspace(workspaceID int32, filters *EntryFilters) (*PaginatedEntries, error)
	Update(workspaceID int32, id int32, data *UpdateEntryData) (*LedgerEntry, error)
	SoftDelete(workspaceID int32, id int32) error
	CreateTransferPair(fromEntry, toEntry *LedgerEntry) (*TransferResult, error)
	SoftDeleteTransferPair(workspaceID int32, pairID uuid.UUID) error
	SetReceiptKey(workspaceID int32, id int32, key *string) error

	// GetAccountEntrySummaries folds all live entries per account.
	// A non-zero through date restricts the fold to entries dated on or before it.
	GetAccountEntrySummaries(workspaceID int32, through time.Time) ([]*EntrySummary, error)

	CountByCategory(workspaceID int32, category string) (int64, error)
	EarliestEntryDate(workspaceID int32) (*time.Time, error)
}
