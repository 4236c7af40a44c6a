package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// LedgerService handles ledger entry business logic
type LedgerService struct {
	ledgerRepo  domain.LedgerRepository
	accountRepo domain.AccountRepository
	publisher   websocket.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo domain.LedgerRepository, accountRepo domain.AccountRepository, publisher websocket.EventPublisher) *LedgerService {
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// CreateEntryInput holds the input for creating an income or expense entry
type CreateEntryInput struct {
	AccountID   int32
	Kind        domain.EntryKind
	Category    string
	SubCategory *string
	Description string
	Amount      decimal.Decimal
	EntryDate   time.Time
	Notes       *string
}

// CreateEntry records a single income or expense entry.
// The entry's currency always comes from the account; amounts are stored
// positive, the kind determines the sign in aggregation.
func (s *LedgerService) CreateEntry(workspaceID int32, input CreateEntryInput) (*domain.LedgerEntry, error) {
	if input.Kind != domain.EntryKindIncome && input.Kind != domain.EntryKindExpense {
		return nil, domain.ErrInvalidInput
	}
	if err := validateEntryFields(input.Category, input.Description, input.Amount); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(workspaceID, input.AccountID)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		WorkspaceID: workspaceID,
		AccountID:   account.ID,
		Kind:        input.Kind,
		Category:    strings.TrimSpace(input.Category),
		SubCategory: input.SubCategory,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		Currency:    account.Currency,
		EntryDate:   input.EntryDate,
		Notes:       input.Notes,
	}

	created, err := s.ledgerRepo.Create(entry)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.EntryCreated(created))
	return created, nil
}

// CreateTransferInput holds the input for creating a transfer between accounts
type CreateTransferInput struct {
	FromAccountID int32
	ToAccountID   int32
	Amount        decimal.Decimal
	FXRate        *decimal.Decimal
	Description   string
	EntryDate     time.Time
	Notes         *string
}

// CreateTransfer records a transfer as two paired entries, one per account,
// created atomically. When the accounts settle in different currencies the
// caller supplies the conversion rate and the receiving leg is amount x rate.
func (s *LedgerService) CreateTransfer(workspaceID int32, input CreateTransferInput) (*domain.TransferResult, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccountTransfer
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrInvalidInput
	}

	from, err := s.accountRepo.GetByID(workspaceID, input.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.accountRepo.GetByID(workspaceID, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	toAmount := input.Amount
	var fxRate *decimal.Decimal
	if from.Currency != to.Currency {
		if input.FXRate == nil || !input.FXRate.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		rate := *input.FXRate
		fxRate = &rate
		toAmount = input.Amount.Mul(rate)
	}

	pairID := uuid.New()
	outDir := domain.TransferOut
	inDir := domain.TransferIn
	description := strings.TrimSpace(input.Description)

	fromEntry := &domain.LedgerEntry{
		WorkspaceID:    workspaceID,
		AccountID:      from.ID,
		Kind:           domain.EntryKindTransfer,
		Direction:      &outDir,
		Category:       "Transfer",
		Description:    description,
		Amount:         input.Amount,
		Currency:       from.Currency,
		EntryDate:      input.EntryDate,
		TransferPairID: &pairID,
		FXRate:         fxRate,
		Notes:          input.Notes,
	}
	toEntry := &domain.LedgerEntry{
		WorkspaceID:    workspaceID,
		AccountID:      to.ID,
		Kind:           domain.EntryKindTransfer,
		Direction:      &inDir,
		Category:       "Transfer",
		Description:    description,
		Amount:         toAmount,
		Currency:       to.Currency,
		EntryDate:      input.EntryDate,
		TransferPairID: &pairID,
		FXRate:         fxRate,
		Notes:          input.Notes,
	}

	result, err := s.ledgerRepo.CreateTransferPair(fromEntry, toEntry)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("pair_id", pairID.String()).
		Str("amount", input.Amount.String()).
		Msg("Transfer created")

	s.publisher.Publish(workspaceID, websocket.EntryCreated(result.FromEntry))
	s.publisher.Publish(workspaceID, websocket.EntryCreated(result.ToEntry))
	return result, nil
}

// GetEntries retrieves a filtered, paginated entry list
func (s *LedgerService) GetEntries(workspaceID int32, filters *domain.EntryFilters) (*domain.PaginatedEntries, error) {
	if filters == nil {
		filters = &domain.EntryFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	return s.ledgerRepo.GetByWorkspace(workspaceID, filters)
}

// GetEntryByID retrieves a single entry
func (s *LedgerService) GetEntryByID(workspaceID int32, id int32) (*domain.LedgerEntry, error) {
	return s.ledgerRepo.GetByID(workspaceID, id)
}

// UpdateEntry updates a non-transfer entry's mutable fields.
// Transfer legs cannot be edited independently; delete and recreate the pair.
func (s *LedgerService) UpdateEntry(workspaceID int32, id int32, data *domain.UpdateEntryData) (*domain.LedgerEntry, error) {
	existing, err := s.ledgerRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if existing.Kind == domain.EntryKindTransfer {
		return nil, domain.ErrInvalidInput
	}
	if err := validateEntryFields(data.Category, data.Description, data.Amount); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.GetByID(workspaceID, data.AccountID); err != nil {
		return nil, err
	}

	data.Category = strings.TrimSpace(data.Category)
	data.Description = strings.TrimSpace(data.Description)

	updated, err := s.ledgerRepo.Update(workspaceID, id, data)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.EntryUpdated(updated))
	return updated, nil
}

// DeleteEntry soft-deletes an entry. Deleting either leg of a transfer
// deletes both, so transfers are never left half-recorded.
func (s *LedgerService) DeleteEntry(workspaceID int32, id int32) error {
	entry, err := s.ledgerRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	if entry.TransferPairID != nil {
		if err := s.ledgerRepo.SoftDeleteTransferPair(workspaceID, *entry.TransferPairID); err != nil {
			return err
		}
	} else {
		if err := s.ledgerRepo.SoftDelete(workspaceID, id); err != nil {
			return err
		}
	}

	s.publisher.Publish(workspaceID, websocket.EntryDeleted(map[string]int32{"id": id}))
	return nil
}

func validateEntryFields(category, description string, amount decimal.Decimal) error {
	if strings.TrimSpace(category) == "" {
		return domain.ErrNameRequired
	}
	if len(category) > domain.MaxCategoryNameLength {
		return domain.ErrNameTooLong
	}
	if len(description) > domain.MaxDescriptionLength {
		return domain.ErrInvalidInput
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	return nil
}
