package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// AccountService handles account-related business logic
type AccountService struct {
	accountRepo domain.AccountRepository
	publisher   websocket.EventPublisher
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository, publisher websocket.EventPublisher) *AccountService {
	return &AccountService{accountRepo: accountRepo, publisher: publisher}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	AccountType    domain.AccountType
	Currency       domain.Currency
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account
func (s *AccountService) CreateAccount(workspaceID int32, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}
	if !domain.ValidAccountTypes[input.AccountType] {
		return nil, domain.ErrInvalidAccountType
	}
	if !domain.ValidCurrency(input.Currency) {
		return nil, domain.ErrInvalidCurrency
	}

	account := &domain.Account{
		WorkspaceID:    workspaceID,
		Name:           name,
		AccountType:    input.AccountType,
		Currency:       input.Currency,
		InitialBalance: input.InitialBalance,
		CashAdjustment: decimal.Zero,
	}

	created, err := s.accountRepo.Create(account)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.AccountCreated(created))
	return created, nil
}

// GetAccounts retrieves all accounts for a workspace
func (s *AccountService) GetAccounts(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	return s.accountRepo.GetAllByWorkspace(workspaceID, includeArchived)
}

// GetAccountByID retrieves an account by ID within a workspace
func (s *AccountService) GetAccountByID(workspaceID int32, id int32) (*domain.Account, error) {
	return s.accountRepo.GetByID(workspaceID, id)
}

// UpdateAccount updates an account's mutable fields. Type and currency
// are fixed at creation; the cash adjustment absorbs interest and other
// amounts with no ledger entry of their own.
func (s *AccountService) UpdateAccount(workspaceID int32, id int32, data *domain.UpdateAccountData) (*domain.Account, error) {
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(data.Name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}

	updated, err := s.accountRepo.Update(workspaceID, id, data)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.AccountUpdated(updated))
	return updated, nil
}

// DeleteAccount soft-deletes an account (sets deleted_at timestamp)
func (s *AccountService) DeleteAccount(workspaceID int32, id int32) error {
	// SoftDelete atomically checks existence and deletes, returning ErrAccountNotFound if not found
	if err := s.accountRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}

	s.publisher.Publish(workspaceID, websocket.AccountDeleted(map[string]int32{"id": id}))
	return nil
}
